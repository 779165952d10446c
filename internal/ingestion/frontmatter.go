package ingestion

import (
	"bytes"

	"github.com/adrg/frontmatter"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// ParseSpecMetadata reads YAML frontmatter from a spec file. It returns nil
// when there is no frontmatter, the frontmatter is malformed, or it sets no
// known field. The file content itself is never modified.
func ParseSpecMetadata(content string) *types.SpecMetadata {
	var matter types.SpecMetadata
	if _, err := frontmatter.Parse(bytes.NewReader([]byte(content)), &matter); err != nil {
		return nil
	}
	if matter.IsEmpty() {
		return nil
	}
	return &matter
}
