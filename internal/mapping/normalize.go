package mapping

import (
	"regexp"
	"strings"
)

// RequiredMarker flags a mandatory target column when embedded in its header.
const RequiredMarker = "[필수]"

var annotationPattern = regexp.MustCompile(`\[.*?\]`)

// Normalize canonicalizes a header for fuzzy comparison.
// The pipeline:
// 1. Drop bracketed annotations such as the required marker.
// 2. Keep only Latin letters, Hangul syllables and digits.
// 3. Lower-case what remains.
func Normalize(header string) string {
	header = annotationPattern.ReplaceAllString(header, "")

	var b strings.Builder

	b.Grow(len(header))

	for _, r := range header {
		if isHeaderRune(r) {
			b.WriteRune(r)
		}
	}

	return strings.ToLower(b.String())
}

func isHeaderRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= '가' && r <= '힣':
		return true
	}

	return false
}

// IsRequired reports whether the header carries the required marker.
func IsRequired(header string) bool {
	return strings.Contains(header, RequiredMarker)
}

// DisplayLabel collapses embedded line breaks for display.
// Lookups must keep using the original header.
func DisplayLabel(header string) string {
	header = strings.ReplaceAll(header, "\r\n", " ")
	return strings.ReplaceAll(header, "\n", " ")
}
