package internal

import (
	"strings"
	"unicode"
)

// Version is the wortkiste release version
var Version = "0.2.0"

// SanitizeFilename turns a pronunciation query into a safe filename stem.
// Spaces become underscores so "der tisch" and "der_tisch" map to the same
// audio file across runs.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, s)
}

// CapitalizeFirst upper-cases the first rune and lower-cases the rest.
// German nouns are displayed capitalized regardless of how they were typed.
func CapitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return strings.ToUpper(s)
	}
	return string(unicode.ToUpper(runes[0])) + strings.ToLower(string(runes[1:]))
}
