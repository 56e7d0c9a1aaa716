// Package textnorm folds Vietnamese text into a lowercase, accent-free form
// used for keyword matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ/Đ are letters of their own and do not decompose under NFD.
var letterReplacer = strings.NewReplacer("đ", "d", "Đ", "d")

// Fold lowercases s, strips combining marks and collapses whitespace.
// "Giải Tích  1" becomes "giai tich 1".
func Fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = letterReplacer.Replace(out)
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// CollapseSpaces replaces every run of whitespace with a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes. It reports whether s was cut.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 {
		return s, false
	}
	r := []rune(s)
	if len(r) <= max {
		return s, false
	}
	return string(r[:max]), true
}

// Tokens splits folded text into letter/digit runs.
func Tokens(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
