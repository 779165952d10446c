// Package prompts holds the completion templates used by the discovery stages.
// Templates live in embedded JSON files keyed by name and use text/template syntax.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

// File is the template file for the discovery pipeline
const File = "discovery.json"

// Template keys in File
const (
	KeyQueries   = "generate-queries"
	KeySelection = "select-results"
	KeyContent   = "generate-content"
)

// set is one parsed template file
type set struct {
	raw       map[string]string
	templates map[string]*template.Template
}

var (
	cache   = make(map[string]*set)
	cacheMu sync.Mutex
)

// Get returns the raw template text for key in filename
func Get(filename, key string) (string, error) {
	s, err := load(filename)
	if err != nil {
		return "", err
	}
	text, ok := s.raw[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return text, nil
}

// MustGet is Get for templates required at startup
func MustGet(filename, key string) string {
	text, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return text
}

// Render executes the template for key with data. Every {{.Field}} the template
// uses must be present in data. Values are inserted verbatim.
func Render(filename, key string, data map[string]string) (string, error) {
	s, err := load(filename)
	if err != nil {
		return "", err
	}
	tmpl, ok := s.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s/%s: %w", filename, key, err)
	}
	return buf.String(), nil
}

// List returns the template keys in filename, sorted
func List(filename string) ([]string, error) {
	s, err := load(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(s.raw))
	for key := range s.raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// load parses a template file once and caches it
func load(filename string) (*set, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[filename]; ok {
		return s, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	s := &set{raw: raw, templates: make(map[string]*template.Template, len(raw))}
	for key, text := range raw {
		tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid template %s/%s: %w", filename, key, err)
		}
		s.templates[key] = tmpl
	}

	cache[filename] = s
	return s, nil
}
