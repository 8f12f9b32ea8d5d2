package service

import "strings"

// normalizeHandle trims whitespace and strips a single leading "@".
// This is the only normalization applied to handles at query boundaries —
// comparison stays exact and case-sensitive.
func normalizeHandle(raw string) string {
	h := strings.TrimSpace(raw)
	return strings.TrimPrefix(h, "@")
}
