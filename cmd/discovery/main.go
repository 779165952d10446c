// Package main provides the entry point for the MCP server discovery service and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "discovery",
		Short:         "MCP server discovery",
		Long:          "Recommends MCP servers for a software project from a prompt and project files, over HTTP, MCP stdio or the command line.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (YAML or JSON); environment variables override it")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newDiscoverCmd(&configPath),
		newMCPCmd(&configPath),
		newCatalogCmd(&configPath),
	)
	return rootCmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
