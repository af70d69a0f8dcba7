package services

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// suggestMaxDistance is the edit distance allowed for spelling suggestions.
const suggestMaxDistance = 2

// Corrector suggests vocabulary terms close to a misspelt word.
type Corrector struct {
	terms []domain.TermStat
}

// NewCorrector creates a corrector over the vocabulary of one field.
func NewCorrector(terms []domain.TermStat) *Corrector {
	return &Corrector{terms: terms}
}

type correction struct {
	term     string
	distance int
	docFreq  int
}

// Within returns the terms at most maxDistance edits away from word,
// closest first, then most frequent first, then alphabetically. The word
// itself is included when it is in the vocabulary.
func (c *Corrector) Within(word string, maxDistance int) []string {
	found := c.corrections(word, maxDistance, true)
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.term
	}
	return out
}

// Suggest returns up to limit terms other than word within the
// suggestion distance, in the order of Within.
func (c *Corrector) Suggest(word string, limit int) []string {
	found := c.corrections(word, suggestMaxDistance, false)
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.term
	}
	return out
}

func (c *Corrector) corrections(word string, maxDistance int, includeSelf bool) []correction {
	word = domain.NormalizeTerm(word)
	if word == "" {
		return nil
	}
	wordLen := utf8.RuneCountInString(word)

	var found []correction
	for _, t := range c.terms {
		if t.Term == word && !includeSelf {
			continue
		}
		if diff := utf8.RuneCountInString(t.Term) - wordLen; diff > maxDistance || -diff > maxDistance {
			continue
		}
		d := editDistance(word, t.Term)
		if d > maxDistance {
			continue
		}
		found = append(found, correction{term: t.Term, distance: d, docFreq: t.DocFreq})
	}

	slices.SortFunc(found, func(a, b correction) int {
		return cmp.Or(
			cmp.Compare(a.distance, b.distance),
			cmp.Compare(b.docFreq, a.docFreq),
			cmp.Compare(a.term, b.term),
		)
	})
	return found
}

// editDistance is the Levenshtein distance, except that a single swap of
// two adjacent letters counts as one edit.
func editDistance(a, b string) int {
	d := levenshtein.ComputeDistance(a, b)
	if d == 2 && isAdjacentSwap(a, b) {
		return 1
	}
	return d
}

func isAdjacentSwap(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	i := 0
	for i < len(ra) && ra[i] == rb[i] {
		i++
	}
	if i+1 >= len(ra) || ra[i] != rb[i+1] || ra[i+1] != rb[i] {
		return false
	}
	return string(ra[i+2:]) == string(rb[i+2:])
}
