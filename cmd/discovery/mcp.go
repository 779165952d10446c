package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/mcp-discovery/internal/mcpserver"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the discover_servers tool over MCP stdio",
		Long:  `Run a Model Context Protocol server on stdin/stdout. Logs go to stderr so they never corrupt the protocol stream.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			s := mcpserver.NewServer(a.pipeline, "mcp-discovery", version, a.cfg.Synthesis.Enabled, a.logger)
			return s.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
