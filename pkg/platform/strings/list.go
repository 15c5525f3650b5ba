// Package strings provides string list helpers for configuration values.
package strings

import (
	"strings"
)

// SplitList flattens comma-separated entries, trims each element and drops
// empties and duplicates. Order is preserved.
//
// Example:
//
//	SplitList([]string{"10.1234, 10.5555", "10.1234", " "})
//	// Returns: []string{"10.1234", "10.5555"}
func SplitList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; !ok {
				seen[trimmed] = struct{}{}
				result = append(result, trimmed)
			}
		}
	}

	return result
}
