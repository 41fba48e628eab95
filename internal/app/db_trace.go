package app

import "strings"

const maxTracedQueryLength = 512

// formatDBQueryForTrace collapses whitespace runs so multi-line queries stay
// readable as span attributes, and truncates very long statements.
func formatDBQueryForTrace(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	normalized := strings.Join(fields, " ")
	if len(normalized) > maxTracedQueryLength {
		return normalized[:maxTracedQueryLength] + "..."
	}

	return normalized
}
