// Package types provides type definitions for structured data used throughout the discovery service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"sort"
	"strings"
)

// FileKind classifies an uploaded project file
type FileKind int

const (
	// KindAuto asks the context builder to classify the file by name
	KindAuto FileKind = iota
	// KindSpec is a project specification or rules file (.mdc, .md)
	KindSpec
	// KindManifest is a dependency manifest (package.json, go.mod, ...)
	KindManifest
	// KindOther is any other project file
	KindOther
)

// String returns the kind name used in logs
func (k FileKind) String() string {
	switch k {
	case KindSpec:
		return "spec"
	case KindManifest:
		return "manifest"
	case KindOther:
		return "other"
	default:
		return "auto"
	}
}

// File is an uploaded or inlined project file whose content is already decoded text
type File struct {
	Name    string
	Content string
	Kind    FileKind
}

// NamedFile holds the content of a well-known slot together with its original filename
type NamedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// SpecMetadata is the frontmatter of a spec file (Cursor-style .mdc rules)
type SpecMetadata struct {
	Description string   `yaml:"description" json:"description,omitempty"`
	Globs       GlobList `yaml:"globs" json:"globs,omitempty"`
	AlwaysApply bool     `yaml:"alwaysApply" json:"always_apply,omitempty"`
}

// IsEmpty reports whether no frontmatter field was set
func (m *SpecMetadata) IsEmpty() bool {
	return m == nil || (m.Description == "" && len(m.Globs) == 0 && !m.AlwaysApply)
}

// GlobList accepts either a single comma-separated string or a YAML list
type GlobList []string

// UnmarshalYAML implements the legacy yaml unmarshaler understood by yaml.v2 and yaml.v3
func (g *GlobList) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*g = list
		return nil
	}

	var single string
	if err := unmarshal(&single); err != nil {
		return err
	}

	var globs []string
	for _, part := range strings.Split(single, ",") {
		if part = strings.TrimSpace(part); part != "" {
			globs = append(globs, part)
		}
	}
	*g = globs
	return nil
}

// ProjectContext is the canonical description of the project a discovery request is about.
// Files never holds absent content: a missing file is a missing key.
type ProjectContext struct {
	Prompt       string            `json:"prompt"`
	SpecFile     *NamedFile        `json:"spec_file,omitempty"`
	ManifestFile *NamedFile        `json:"manifest_file,omitempty"`
	Files        map[string]string `json:"files"`
	SpecMetadata *SpecMetadata     `json:"spec_metadata,omitempty"`
}

// RenderFiles renders every file as a "File: name" block for prompt templates.
// Spec and manifest slots come first, generic files follow sorted by name.
func (pc *ProjectContext) RenderFiles() string {
	var blocks []string

	if pc.SpecFile != nil {
		blocks = append(blocks, renderFile(pc.SpecFile.Name, pc.SpecFile.Content))
	}
	if pc.ManifestFile != nil {
		blocks = append(blocks, renderFile(pc.ManifestFile.Name, pc.ManifestFile.Content))
	}

	names := make([]string, 0, len(pc.Files))
	for name := range pc.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		blocks = append(blocks, renderFile(name, pc.Files[name]))
	}

	if len(blocks) == 0 {
		return "(no project files provided)"
	}
	return strings.Join(blocks, "\n\n")
}

// RenderSpecMetadata renders the spec frontmatter, or an empty string when there is none
func (pc *ProjectContext) RenderSpecMetadata() string {
	if pc.SpecMetadata.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	if pc.SpecMetadata.Description != "" {
		sb.WriteString(fmt.Sprintf("Spec description: %s\n", pc.SpecMetadata.Description))
	}
	if len(pc.SpecMetadata.Globs) > 0 {
		sb.WriteString(fmt.Sprintf("Applies to: %s\n", strings.Join(pc.SpecMetadata.Globs, ", ")))
	}
	if pc.SpecMetadata.AlwaysApply {
		sb.WriteString("Always applied: yes\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// FileCount returns the number of files attached to the context, slots included
func (pc *ProjectContext) FileCount() int {
	n := len(pc.Files)
	if pc.SpecFile != nil {
		n++
	}
	if pc.ManifestFile != nil {
		n++
	}
	return n
}

func renderFile(name, content string) string {
	return fmt.Sprintf("File: %s\n%s", name, content)
}
