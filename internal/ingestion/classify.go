package ingestion

import (
	"path/filepath"
	"strings"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// manifestNames are dependency manifests recognized by exact (case-insensitive) base name
var manifestNames = map[string]bool{
	"package.json":     true,
	"pyproject.toml":   true,
	"cargo.toml":       true,
	"go.mod":           true,
	"requirements.txt": true,
	"gemfile":          true,
	"composer.json":    true,
	"pom.xml":          true,
	"build.gradle":     true,
}

// Classify assigns a kind to a file by its name only. Content is never inspected.
func Classify(name string) types.FileKind {
	base := strings.ToLower(filepath.Base(name))

	if manifestNames[base] {
		return types.KindManifest
	}

	switch filepath.Ext(base) {
	case ".mdc", ".md":
		return types.KindSpec
	}

	return types.KindOther
}

// IsManifest reports whether name is a recognized dependency manifest
func IsManifest(name string) bool {
	return Classify(name) == types.KindManifest
}
