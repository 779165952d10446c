package ingestion

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/mcp-discovery/internal/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText turns uploaded bytes into text. Content that is not valid UTF-8
// is rejected with an InvalidInputError naming the file.
func DecodeText(name string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", &types.InvalidInputError{
			Field:   name,
			Message: "file is not valid UTF-8 text",
		}
	}
	return normalizeLineEndings(string(data)), nil
}

// ReadFile reads a local project file for the CLI. The kind is carried through
// so callers can pin a file to a slot.
func ReadFile(path string, kind types.FileKind) (types.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.File{}, fmt.Errorf("file not found: %w", err)
		}
		return types.File{}, fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)
	content, err := DecodeText(name, data)
	if err != nil {
		return types.File{}, err
	}

	return types.File{Name: name, Content: content, Kind: kind}, nil
}

// ReadFiles reads several local files with automatic classification
func ReadFiles(paths []string) ([]types.File, error) {
	files := make([]types.File, 0, len(paths))
	for _, path := range paths {
		f, err := ReadFile(path, types.KindAuto)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// normalizeLineEndings converts CRLF and lone CR to LF
func normalizeLineEndings(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}
