package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-retrieval/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long:  serveLong(),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		logger.Info().Str("version", Version).Msg("MCP server listening on stdio")
		return server.New(logger).Serve(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// serveLong lists the registered tools in the command help.
func serveLong() string {
	var b strings.Builder
	b.WriteString("Run the MCP server on stdin/stdout.\n\nTools:\n")
	for _, tool := range server.GetToolDefinitions() {
		b.WriteString("  " + tool.Name + "\n")
	}
	b.WriteString("\nConfigure it in your MCP client; logs go to stderr.")
	return b.String()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
