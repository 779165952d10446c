package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/mcp-discovery/internal/ingestion"
	"github.com/jonathan/mcp-discovery/internal/observability"
	"github.com/jonathan/mcp-discovery/internal/pipeline"
	"github.com/jonathan/mcp-discovery/internal/types"
)

type discoverOptions struct {
	prompt       string
	specFile     string
	manifestFile string
	jsonOutput   bool
	noSynthesis  bool
	style        string
	verbose      bool
}

func newDiscoverCmd(configPath *string) *cobra.Command {
	opts := &discoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover [files...]",
		Short: "Recommend MCP servers for a project",
		Long: `Run discovery once and print the recommendations as terminal markdown, or JSON with --json.
Files are classified by name: .mdc and .md files become the project spec, known
dependency manifests (package.json, go.mod, ...) become the manifest, anything else is extra context.`,
		Example: `  discovery discover -p "I need file system access" package.json .cursor/rules/project.mdc
  discovery discover -p "postgres tooling" --spec docs/spec.md --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := opts.input(args)
			if err != nil {
				return err
			}
			if note := opts.manifestNote(); note != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), note)
			}

			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return runDiscover(cmd, a.pipeline, input, opts, a.cfg.Synthesis.Enabled)
		},
	}

	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "What the project needs (required)")
	cmd.Flags().StringVar(&opts.specFile, "spec", "", "Project spec or rules file")
	cmd.Flags().StringVar(&opts.manifestFile, "manifest", "", "Dependency manifest file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the response as JSON")
	cmd.Flags().BoolVar(&opts.noSynthesis, "no-synthesis", false, "Skip per-recommendation content generation")
	cmd.Flags().StringVar(&opts.style, "style", observability.StyleDark, "Markdown style: dark, light or notty")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print stage progress to stderr")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

// input reads the pinned spec and manifest files and every positional file
func (o *discoverOptions) input(paths []string) (pipeline.Input, error) {
	input := pipeline.Input{Prompt: o.prompt}

	if o.specFile != "" {
		f, err := ingestion.ReadFile(o.specFile, types.KindSpec)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("%s: %w", o.specFile, err)
		}
		input.SpecFile = &types.NamedFile{Name: f.Name, Content: f.Content}
	}
	if o.manifestFile != "" {
		f, err := ingestion.ReadFile(o.manifestFile, types.KindManifest)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("%s: %w", o.manifestFile, err)
		}
		input.ManifestFile = &types.NamedFile{Name: f.Name, Content: f.Content}
	}

	files, err := ingestion.ReadFiles(paths)
	if err != nil {
		return pipeline.Input{}, err
	}
	input.Files = files

	return input, nil
}

// manifestNote warns when --manifest names a file that is not a known dependency
// manifest. The file is still used as the manifest.
func (o *discoverOptions) manifestNote() string {
	if o.manifestFile == "" || ingestion.IsManifest(o.manifestFile) {
		return ""
	}
	return fmt.Sprintf("warning: %s is not a recognized dependency manifest; using it anyway", filepath.Base(o.manifestFile))
}

// runDiscover runs the pipeline and writes the result to the command's output
func runDiscover(cmd *cobra.Command, p *pipeline.Pipeline, input pipeline.Input, opts *discoverOptions, synthesize bool) error {
	stderr := observability.NewPrinter(cmd.ErrOrStderr(), opts.style)

	runOpts := pipeline.Options{Synthesize: synthesize && !opts.noSynthesis}
	if opts.verbose {
		runOpts.OnProgress = stderr.PrintProgress
	}

	result, err := p.Run(cmd.Context(), input, runOpts)
	if err != nil {
		return err
	}

	if opts.verbose {
		stderr.PrintQueries(result.Queries)
	}

	if opts.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result.Response())
	}

	stderr.PrintWarnings(result.Warnings)
	resp := result.Response()
	resp.Warnings = nil
	return observability.NewPrinter(cmd.OutOrStdout(), opts.style).PrintRecommendations(resp)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
