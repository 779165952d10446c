package ranking

import (
	"strings"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// MergeByTitle flattens per-query result lists in query order, keeping the first
// occurrence of each title. Untitled candidates are skipped.
func MergeByTitle(perQuery [][]types.Candidate) []types.Candidate {
	seen := make(map[string]bool)
	merged := make([]types.Candidate, 0)

	for _, results := range perQuery {
		for _, c := range results {
			key := strings.TrimSpace(c.Title)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, c.Clone())
		}
	}

	return merged
}
