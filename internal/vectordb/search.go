package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text. describe,
// if non-nil, adds extra lines for each result's metadata.
func FormatResults[M any](results []SearchResult[M], describe func(M) []string) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "--- Result %d (similarity: %.4f) ---\n", i+1, r.Similarity)
		if describe != nil {
			for _, line := range describe(r.Document.Metadata) {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
		sb.WriteString(r.Document.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
