// Package ingestion builds the canonical project context from a prompt and
// uploaded project files.
package ingestion

import (
	"sort"
	"strings"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// Build creates a ProjectContext. specFile and manifestFile are slots the caller
// filled explicitly; extraFiles are classified by name unless their Kind is set.
// A slot that is already taken is never overwritten: the overflow file goes to
// the generic file map instead.
func Build(prompt string, specFile, manifestFile *types.NamedFile, extraFiles []types.File) (*types.ProjectContext, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &types.InvalidInputError{Field: "prompt", Message: "must be a non-empty string"}
	}

	pc := &types.ProjectContext{
		Prompt: prompt,
		Files:  make(map[string]string),
	}

	if specFile != nil {
		spec := *specFile
		pc.SpecFile = &spec
	}
	if manifestFile != nil {
		manifest := *manifestFile
		pc.ManifestFile = &manifest
	}

	for _, f := range extraFiles {
		kind := f.Kind
		if kind == types.KindAuto {
			kind = Classify(f.Name)
		}

		switch {
		case kind == types.KindSpec && pc.SpecFile == nil:
			pc.SpecFile = &types.NamedFile{Name: f.Name, Content: f.Content}
		case kind == types.KindManifest && pc.ManifestFile == nil:
			pc.ManifestFile = &types.NamedFile{Name: f.Name, Content: f.Content}
		default:
			pc.Files[f.Name] = f.Content
		}
	}

	if pc.SpecFile != nil {
		pc.SpecMetadata = ParseSpecMetadata(pc.SpecFile.Content)
	}

	return pc, nil
}

// FromPayload builds a context from the JSON request shape where spec and
// manifest content arrive without filenames
func FromPayload(prompt string, payload *types.ProjectContextPayload) (*types.ProjectContext, error) {
	if payload == nil {
		return Build(prompt, nil, nil, nil)
	}

	if strings.TrimSpace(prompt) == "" {
		prompt = payload.UserPrompt
	}

	var spec, manifest *types.NamedFile
	if payload.ProjectMDCFileContents != nil {
		spec = &types.NamedFile{Name: "project.mdc", Content: *payload.ProjectMDCFileContents}
	}
	if payload.ProjectPackageManagerContents != nil {
		manifest = &types.NamedFile{Name: "package.json", Content: *payload.ProjectPackageManagerContents}
	}

	extra := make([]types.File, 0, len(payload.AdditionalFiles))
	for _, name := range sortedKeys(payload.AdditionalFiles) {
		extra = append(extra, types.File{Name: name, Content: payload.AdditionalFiles[name], Kind: types.KindOther})
	}

	return Build(prompt, spec, manifest, extra)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
