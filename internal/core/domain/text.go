package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks from s ("Réunion" becomes "Reunion").
// Labels, index text and queries all go through it so that accented and
// unaccented spellings match.
func StripAccents(s string) string {
	// A transform.Chain keeps state and must not be shared between goroutines.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize lower-cases text and splits it on every rune that is neither
// a letter nor a digit. Empty tokens are dropped.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeTerm returns the form under which a word is stored in the index
// vocabulary: accent-stripped and lower-cased.
func NormalizeTerm(word string) string {
	return strings.ToLower(StripAccents(strings.TrimSpace(word)))
}
