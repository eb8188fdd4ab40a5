package utils

import "strings"

// LogPreview flattens s onto one line and keeps at most limit runes of it.
// Extracted résumé text is full of line breaks and column padding, which
// would otherwise spread a single log field over many lines.
func LogPreview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}
