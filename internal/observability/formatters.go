// Package observability provides formatted output for the discovery CLI:
// markdown recommendations rendered for the terminal and boxed stage summaries for verbose mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jonathan/mcp-discovery/internal/pipeline"
	"github.com/jonathan/mcp-discovery/internal/ranking"
	"github.com/jonathan/mcp-discovery/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// defaultWrap is the markdown word wrap width
	defaultWrap = 80
)

// Glamour style names
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

// Printer handles formatted output for the CLI
type Printer struct {
	out   io.Writer
	style string
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// An empty style renders with StyleDark.
func NewPrinter(out io.Writer, style string) *Printer {
	if style == "" {
		style = StyleDark
	}
	return &Printer{out: out, style: style, width: defaultWrap}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// Markdown renders a discovery response as a markdown document
func Markdown(resp types.DiscoveryResponse) string {
	var sb strings.Builder
	sb.WriteString("# Recommended MCP servers\n")

	for i, rec := range resp.MCPServers {
		sb.WriteString(fmt.Sprintf("\n## %d. %s\n\n", i+1, rec.Title))
		sb.WriteString(rec.Description + "\n\n")
		sb.WriteString(fmt.Sprintf("```sh\n%s\n```\n\n", rec.CLICommand))

		if rec.GitHubURL != "" {
			sb.WriteString(fmt.Sprintf("- GitHub: <%s>\n", rec.GitHubURL))
		}
		if rec.ProjectURL != "" {
			sb.WriteString(fmt.Sprintf("- Project: <%s>\n", rec.ProjectURL))
		}
		for _, src := range rec.Sources {
			if src.SourceURL != "" {
				sb.WriteString(fmt.Sprintf("- Found on %s: <%s>\n", src.SourceName, src.SourceURL))
			}
		}

		sb.WriteString("\n" + strings.TrimSpace(rec.Content) + "\n")
	}

	if len(resp.Warnings) > 0 {
		sb.WriteString("\n---\n\n")
		for _, w := range resp.Warnings {
			sb.WriteString(fmt.Sprintf("> %s\n", w))
		}
	}

	return sb.String()
}

// PrintRecommendations renders the response as terminal markdown
func (p *Printer) PrintRecommendations(resp types.DiscoveryResponse) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(p.width),
		glamour.WithStandardStyle(p.style),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := renderer.Render(Markdown(resp))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	_, err = io.WriteString(p.out, out)
	return err
}

// PrintQueries outputs the generated search queries
func (p *Printer) PrintQueries(queries []string) {
	if len(queries) == 0 {
		p.printBox("SEARCH QUERIES", "(none)")
		return
	}

	var sb strings.Builder
	for i, q := range queries {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
	}
	p.printBox("SEARCH QUERIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatches outputs the top scored catalog entries for one query
func (p *Printer) PrintMatches(query string, matches []ranking.Scored) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", query))

	if len(matches) == 0 {
		sb.WriteString("No catalog entries matched.")
		p.printBox("CATALOG MATCHES", sb.String())
		return
	}

	count := min(len(matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		m := matches[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, m.Candidate.Title))
		sb.WriteString(fmt.Sprintf("    Score: %.2f\n", m.Score))
		if m.Candidate.CLICommand != "" {
			sb.WriteString(fmt.Sprintf("    Install: %s\n", m.Candidate.CLICommand))
		}
	}
	if len(matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(matches)-maxItemsToShow))
	}

	p.printBox("CATALOG MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWarnings outputs degraded-stage warnings. Nothing is printed when there are none.
func (p *Printer) PrintWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}

	var sb strings.Builder
	for i, w := range warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s", w))
		if i < len(warnings)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("WARNINGS", sb.String())
}

// PrintProgress writes one line per pipeline stage
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "• [%s] %s\n", event.Step, event.Message)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
