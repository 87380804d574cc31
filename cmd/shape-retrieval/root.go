package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-retrieval/internal/logging"
)

var (
	// logger is configured from the persistent flags before any subcommand
	// runs. It always writes to stderr; stdout carries results and the MCP
	// protocol.
	logger = zerolog.Nop()

	logLevel   string
	logConsole bool
)

var rootCmd = &cobra.Command{
	Use:     "shape-retrieval",
	Short:   "Shape retrieval over segmented images using a bag of boundaries",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, level, logConsole)
		logger.Debug().
			Str("version", Version).
			Str("build_time", BuildTime).
			Str("commit", GitCommit).
			Msg("starting")
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}}\n  Build time: %s\n  Git commit: %s\n", BuildTime, GitCommit))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default $"+logging.EnvLevel+" or info)")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "console", false, "Human-readable log output instead of JSON")
}
