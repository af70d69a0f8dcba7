package domain

// Classifier categories. Each label has its own yes/no model.
const (
	CategoryYes = "yes"
	CategoryNo  = "no"
)

// Guess weights: a label is predicted when yes*GuessWeightYes > no*GuessWeightNo.
const (
	GuessWeightYes = 5.0
	GuessWeightNo  = 1.0
)

// CategoryCounts holds the token counts learnt for one category.
type CategoryCounts struct {
	Tokens map[string]int `json:"tokens"`
	Tally  int            `json:"tally"`
}

// ClassifierModel is a multi-category naive Bayes text model.
// Training and untraining with the same text are exact inverses.
type ClassifierModel struct {
	Categories map[string]*CategoryCounts `json:"categories"`
}

// NewClassifierModel returns an empty model.
func NewClassifierModel() *ClassifierModel {
	return &ClassifierModel{Categories: make(map[string]*CategoryCounts)}
}

// Empty reports whether the model has learnt nothing.
func (m *ClassifierModel) Empty() bool {
	return len(m.Categories) == 0
}

// Train adds the tokens of text to category.
func (m *ClassifierModel) Train(category, text string) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return
	}
	if m.Categories == nil {
		m.Categories = make(map[string]*CategoryCounts)
	}
	cat, ok := m.Categories[category]
	if !ok {
		cat = &CategoryCounts{Tokens: make(map[string]int)}
		m.Categories[category] = cat
	}
	for _, tok := range tokens {
		cat.Tokens[tok]++
		cat.Tally++
	}
}

// Untrain removes the tokens of text from category. Counts never go
// below zero; empty entries are removed.
func (m *ClassifierModel) Untrain(category, text string) {
	cat, ok := m.Categories[category]
	if !ok {
		return
	}
	for _, tok := range Tokenize(text) {
		n, ok := cat.Tokens[tok]
		if !ok {
			continue
		}
		if n <= 1 {
			delete(cat.Tokens, tok)
		} else {
			cat.Tokens[tok] = n - 1
		}
		if cat.Tally > 0 {
			cat.Tally--
		}
	}
	if cat.Tally == 0 || len(cat.Tokens) == 0 {
		delete(m.Categories, category)
	}
}

// Score returns, per category, the sum over the tokens of text of the
// probability that the token belongs to that category. Categories with a
// zero score are left out.
func (m *ClassifierModel) Score(text string) map[string]float64 {
	scores := make(map[string]float64)
	total := 0
	for _, cat := range m.Categories {
		total += cat.Tally
	}
	if total == 0 {
		return scores
	}

	occurrences := make(map[string]int)
	for _, tok := range Tokenize(text) {
		occurrences[tok]++
	}

	for tok, count := range occurrences {
		tokenTally := 0
		for _, cat := range m.Categories {
			tokenTally += cat.Tokens[tok]
		}
		if tokenTally == 0 {
			continue
		}
		for name, cat := range m.Categories {
			tokenScore := cat.Tokens[tok]
			prc := float64(cat.Tally) / float64(total)
			prnc := float64(total-cat.Tally) / float64(total)
			prtc := float64(tokenScore) / float64(tokenTally)
			prtnc := float64(tokenTally-tokenScore) / float64(tokenTally)
			num := prtc * prc
			den := num + prtnc*prnc
			if den == 0 {
				continue
			}
			scores[name] += float64(count) * num / den
		}
	}

	for name, s := range scores {
		if s <= 0 {
			delete(scores, name)
		}
	}
	return scores
}

// Predicts reports whether the model votes yes for text.
func (m *ClassifierModel) Predicts(text string) bool {
	scores := m.Score(text)
	yes, okYes := scores[CategoryYes]
	no := scores[CategoryNo]
	if !okYes {
		return false
	}
	return yes*GuessWeightYes > no*GuessWeightNo
}

// Clone returns a deep copy of the model.
func (m *ClassifierModel) Clone() *ClassifierModel {
	out := NewClassifierModel()
	for name, cat := range m.Categories {
		tokens := make(map[string]int, len(cat.Tokens))
		for tok, n := range cat.Tokens {
			tokens[tok] = n
		}
		out.Categories[name] = &CategoryCounts{Tokens: tokens, Tally: cat.Tally}
	}
	return out
}
