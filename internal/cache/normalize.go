package cache

import "strings"

// Normalize collapses runs of whitespace (including tabs and newlines,
// which become single spaces) and strips leading/trailing whitespace,
// the canonical cache-key form required by spec.md §8 invariant 5.
func Normalize(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
