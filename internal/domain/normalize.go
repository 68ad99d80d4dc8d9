package domain

import (
	"strings"
	"unicode"
)

// NormalizeSpace trims text and compresses every run of whitespace into a
// single space. Case, diacritics and punctuation are preserved.
func NormalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Slugify derives a URL slug from text: lowercase, letters and digits kept
// (diacritics included), every other run of characters collapsed into one
// hyphen, no leading or trailing hyphen.
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingDash := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
