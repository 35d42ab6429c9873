package utils

import "strings"

// NormalizeEmail lowercases and trims an address, stripping the invisible
// runes that tend to leak in from copy-pasted links (zero-width spaces,
// BOM, control characters). Idempotent.
func NormalizeEmail(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00a0':
			return -1
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	return strings.ToLower(strings.TrimSpace(cleaned))
}
