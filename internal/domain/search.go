package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks strips combining marks after canonical decomposition, so "é",
// "ñ", "ç" and "à" become their base letters.
func foldMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeForSearch lowercases s, folds accents, drops everything except
// [a-z0-9 -] and collapses runs of whitespace.
func NormalizeForSearch(s string) string {
	s = foldMarks(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
			space = false
		case unicode.IsSpace(r):
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// SearchWords splits a normalized query, keeping words of two or more characters.
func SearchWords(normalized string) []string {
	var out []string
	for _, w := range strings.Fields(normalized) {
		if len(w) >= 2 {
			out = append(out, w)
		}
	}
	return out
}

// Slugify turns a display name into a URL slug: "Press Banca Inclinado" -> "press-banca-inclinado".
func Slugify(name string) string {
	parts := strings.FieldsFunc(NormalizeForSearch(name), func(r rune) bool {
		return r == ' ' || r == '-'
	})
	return strings.Join(parts, "-")
}

func containsAll(haystack string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}
