// Package synthesis writes per-server recommendation text with one completion call per
// selected candidate and parses the labeled response.
package synthesis

import (
	"strings"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// Fields holds the labeled values found in a response. Empty means the label was absent or blank.
type Fields struct {
	Title       string `json:"title,omitempty"`
	GitHubURL   string `json:"github_url,omitempty"`
	ProjectURL  string `json:"project_url,omitempty"`
	CLICommand  string `json:"cli_command,omitempty"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
}

// IsEmpty reports whether no field was parsed
func (f Fields) IsEmpty() bool {
	return f == Fields{}
}

// Response labels. Matching is case-sensitive at the start of a line.
const (
	LabelTitle       = "TITLE:"
	LabelGitHubURL   = "GITHUB_URL:"
	LabelProjectURL  = "PROJECT_URL:"
	LabelCLICommand  = "CLI_COMMAND:"
	LabelDescription = "DESCRIPTION:"
	LabelContent     = "CONTENT:"
)

var labels = []string{LabelTitle, LabelGitHubURL, LabelProjectURL, LabelCLICommand, LabelDescription, LabelContent}

type parseState int

const (
	stateSeekingLabel parseState = iota
	stateInField
	stateContent
)

// parser accumulates lines for the field that is currently open
type parser struct {
	state  parseState
	label  string
	buffer []string
	values map[string]string
}

// ParseResponse extracts labeled fields. Lines before the first label are discarded;
// CONTENT: consumes every remaining line verbatim. A response without labels yields empty Fields.
func ParseResponse(response string) Fields {
	response = strings.ReplaceAll(response, "\r\n", "\n")

	p := &parser{state: stateSeekingLabel, values: make(map[string]string)}
	for _, line := range strings.Split(response, "\n") {
		p.feed(line)
	}
	p.flush()

	return Fields{
		Title:       p.values[LabelTitle],
		GitHubURL:   p.values[LabelGitHubURL],
		ProjectURL:  p.values[LabelProjectURL],
		CLICommand:  p.values[LabelCLICommand],
		Description: p.values[LabelDescription],
		Content:     p.values[LabelContent],
	}
}

func (p *parser) feed(line string) {
	if p.state == stateContent {
		p.buffer = append(p.buffer, line)
		return
	}

	label, rest, ok := matchLabel(line)
	if !ok {
		if p.state == stateInField {
			p.buffer = append(p.buffer, line)
		}
		return
	}

	p.flush()
	p.label = label
	p.buffer = p.buffer[:0]

	if label == LabelContent {
		p.state = stateContent
		if rest = strings.TrimSpace(rest); rest != "" {
			p.buffer = append(p.buffer, rest)
		}
		return
	}

	p.state = stateInField
	p.buffer = append(p.buffer, rest)
}

// flush stores the open field. Non-content fields are trimmed; content keeps its
// lines as written, trailing blank lines included.
func (p *parser) flush() {
	switch p.state {
	case stateInField:
		p.values[p.label] = strings.TrimSpace(strings.Join(p.buffer, "\n"))
	case stateContent:
		p.values[p.label] = strings.Join(p.buffer, "\n")
	}
	p.state = stateSeekingLabel
}

func matchLabel(line string) (label, rest string, ok bool) {
	for _, l := range labels {
		if strings.HasPrefix(line, l) {
			return l, line[len(l):], true
		}
	}
	return "", "", false
}

// Apply overlays non-empty fields onto a copy of c. URL fields are only taken when they parse.
func Apply(c types.Candidate, f Fields) types.Candidate {
	out := c.Clone()

	if f.Title != "" {
		out.Title = f.Title
	}
	if u := types.NormalizeURL(f.GitHubURL); u != "" {
		out.GitHubURL = u
	}
	if u := types.NormalizeURL(f.ProjectURL); u != "" {
		out.ProjectURL = u
	}
	if f.CLICommand != "" {
		out.CLICommand = f.CLICommand
	}
	if f.Description != "" {
		out.Description = f.Description
	}
	if strings.TrimSpace(f.Content) != "" {
		out.Content = f.Content
	}

	return out
}
