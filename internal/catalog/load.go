package catalog

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/mcp-discovery/internal/schemas"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, "embedded", FormatYAML)
}

// Format is a catalog file encoding
type Format string

// Supported catalog encodings
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from the file extension. Anything that is
// not .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadFile reads and validates a catalog file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Message: "failed to read file", Cause: err}
	}
	return Parse(data, path, FormatFromPath(path))
}

// Parse decodes a catalog document, validates it against the catalog schema
// and builds a Catalog. source names the origin in errors.
func Parse(data []byte, source string, format Format) (*Catalog, error) {
	// Validate the generic document first so schema errors point at the
	// original field names.
	var raw any
	if err := decode(data, format, &raw); err != nil {
		return nil, &LoadError{Source: source, Message: "failed to parse " + string(format), Cause: err}
	}
	if err := schemas.ValidateValue(schemas.CatalogSchema, raw); err != nil {
		return nil, &LoadError{Source: source, Message: "schema validation failed", Cause: err}
	}

	var doc Document
	if err := decode(data, format, &doc); err != nil {
		return nil, &LoadError{Source: source, Message: "failed to decode servers", Cause: err}
	}

	return New(doc.Servers, doc.DiscoveryURL), nil
}

func decode(data []byte, format Format, v any) error {
	if format == FormatJSON {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}
