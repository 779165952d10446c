package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/mcp-discovery/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `Start an HTTP server exposing /discover, /discover-json, /discover/stream, /project-context and /health.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}

			srv := server.New(a.pipeline, server.Config{
				Port:        a.cfg.Port,
				CORSOrigins: a.cfg.CORSOrigins(),
				Synthesize:  a.cfg.Synthesis.Enabled,
				RateLimit:   a.cfg.RateLimiter(),
				Logger:      a.logger,
			})
			return srv.Start()
		},
	}

	cmd.Flags().IntVar(&port, "port", 8000, "Port to listen on (overrides PORT)")
	return cmd
}
