// Package logging configures the zerolog logger shared by the command line
// driver and the MCP server.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// EnvLevel is the environment variable consulted when no level is given.
const EnvLevel = "SHAPE_RETRIEVAL_LOG_LEVEL"

// ParseLevel resolves a level name, falling back to EnvLevel and then to
// "info". Names are case-insensitive zerolog levels (debug, info, warn, ...).
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		name = os.Getenv(EnvLevel)
	}
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// New returns a timestamped logger writing to w at the given level. When
// console is true, output is human-readable instead of JSON.
func New(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
