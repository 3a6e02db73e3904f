package mapping

import "strings"

// Suggest proposes a source column for target.
//
// The first source header whose normalized form equals the normalized target,
// or contains it, wins. Exact and substring hits share the same priority, so
// source column order decides ties.
func Suggest(target string, sourceHeaders []string) (string, bool) {
	t := Normalize(target)
	if t == "" {
		return "", false
	}

	for _, s := range sourceHeaders {
		n := Normalize(s)
		if n == t || strings.Contains(n, t) {
			return s, true
		}
	}

	return "", false
}
