package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/mcp-discovery/internal/catalog"
	"github.com/jonathan/mcp-discovery/internal/observability"
	"github.com/jonathan/mcp-discovery/internal/ranking"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// queryMatches is the JSON shape of catalog search output
type queryMatches struct {
	Query   string           `json:"query"`
	Matches []ranking.Scored `json:"matches"`
}

func newCatalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and manage the local server catalog",
	}

	cmd.AddCommand(
		newCatalogValidateCmd(configPath),
		newCatalogSearchCmd(configPath),
		newCatalogExportCmd(configPath),
		newCatalogImportCmd(configPath),
	)
	return cmd
}

// configuredCatalog loads the catalog the service would use
func configuredCatalog(cmd *cobra.Command, configPath string) (*catalog.Catalog, ranking.Weights, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, ranking.Weights{}, err
	}
	cat, err := loadCatalog(cmd.Context(), cfg)
	if err != nil {
		return nil, ranking.Weights{}, err
	}
	return cat, cfg.Scoring, nil
}

func newCatalogValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file, or the configured catalog when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cat    *catalog.Catalog
				source = "configured catalog"
				err    error
			)
			if len(args) == 1 {
				source = args[0]
				cat, err = catalog.LoadFile(args[0])
			} else {
				cat, _, err = configuredCatalog(cmd, *configPath)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d servers, discovery URL %s\n", source, cat.Len(), cat.DiscoveryURL())
			return nil
		},
	}
}

func newCatalogSearchCmd(configPath *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query> [query...]",
		Short: "Score catalog entries against queries without calling a model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, weights, err := configuredCatalog(cmd, *configPath)
			if err != nil {
				return err
			}

			pool := make([]types.Candidate, 0, cat.Len())
			for _, e := range cat.Entries() {
				pool = append(pool, e.Candidate())
			}

			results := make([]queryMatches, 0, len(args))
			for _, q := range args {
				results = append(results, queryMatches{Query: q, Matches: ranking.RankForQuery(pool, q, weights)})
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			printer := observability.NewPrinter(cmd.OutOrStdout(), "")
			for _, r := range results {
				printer.PrintMatches(r.Query, r.Matches)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print matches as JSON")
	return cmd
}

func newCatalogExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the configured catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, _, err := configuredCatalog(cmd, *configPath)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cat.Document()); err != nil {
				return fmt.Errorf("failed to encode catalog: %w", err)
			}
			return enc.Close()
		},
	}
}

func newCatalogImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the Postgres catalog table with the contents of a catalog file",
		Long:  `Validate a catalog file and write it to the mcp_servers table at DATABASE_URL, replacing every existing row.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Catalog.DatabaseURL) == "" {
				return fmt.Errorf("DATABASE_URL environment variable is required")
			}

			cat, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			store, err := catalog.Connect(cmd.Context(), cfg.Catalog.DatabaseURL)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if err := store.Replace(cmd.Context(), cat); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d servers from %s\n", cat.Len(), args[0])
			return nil
		},
	}
}
