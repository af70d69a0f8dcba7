package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Per-keyword suggestion limits.
const (
	labelSuggestions   = 2
	contentSuggestions = 5
)

// SearchService runs queries against the engine's current searcher.
type SearchService struct {
	engine           *Engine
	fuzzyMaxDistance int
}

// NewSearchService creates a new search service. fuzzyMaxDistance is the
// edit distance fuzzy mode tolerates per word; zero or less uses the default.
func NewSearchService(engine *Engine, fuzzyMaxDistance int) *SearchService {
	if fuzzyMaxDistance <= 0 {
		fuzzyMaxDistance = domain.DefaultFuzzyMaxDistance
	}
	return &SearchService{engine: engine, fuzzyMaxDistance: fuzzyMaxDistance}
}

// FindDocuments returns the documents matching every word of sentence in
// their labels or content. Fuzzy mode first tries close spellings of each
// word, then prefixes. An empty sentence returns every document.
func (s *SearchService) FindDocuments(
	ctx context.Context,
	sentence string,
	opts domain.SearchOptions,
) ([]domain.Document, error) {
	if opts.Mode == "" {
		opts.Mode = domain.SearchModeFuzzy
	}
	if !opts.Mode.IsValid() {
		return nil, fmt.Errorf("search mode %q: %w", opts.Mode, domain.ErrInvalidInput)
	}

	sentence = domain.StripAccents(strings.TrimSpace(sentence))
	if sentence == "" {
		return s.engine.Documents(), nil
	}

	start := time.Now()
	m := s.engine.metrics
	mode := opts.Mode.String()

	docs, err := s.find(ctx, domain.Tokenize(sentence), opts)
	m.SearchLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		m.SearchQueriesTotal.WithLabelValues(mode, "error").Inc()
		return nil, err
	case len(docs) == 0:
		m.SearchQueriesTotal.WithLabelValues(mode, "zero_result").Inc()
	default:
		m.SearchQueriesTotal.WithLabelValues(mode, "hit").Inc()
	}
	m.SearchResultsCount.Observe(float64(len(docs)))
	return docs, nil
}

func (s *SearchService) find(ctx context.Context, tokens []string, opts domain.SearchOptions) ([]domain.Document, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var hits []domain.SearchHit
	err := s.engine.WithSearcher(func(searcher driven.IndexSearcher) error {
		queries, err := s.queries(ctx, searcher, tokens, opts.Mode)
		if err != nil {
			return err
		}
		for _, q := range queries {
			if q.IsEmpty() {
				continue
			}
			found, err := searcher.Search(ctx, q, opts.Limit, opts.Sort)
			if err != nil {
				return err
			}
			hits = append(hits, found...)
			if !opts.Sort && opts.Limit > 0 && len(hits) >= opts.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}

	seen := make(map[string]bool, len(hits))
	docs := make([]domain.Document, 0, len(hits))
	for _, hit := range hits {
		if seen[hit.DocID] {
			continue
		}
		seen[hit.DocID] = true
		doc, ok := s.engine.Document(hit.DocID)
		if !ok {
			logger.Debug("search hit %s is not registered, dropped", hit.DocID)
			continue
		}
		docs = append(docs, doc)
	}
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

// queries returns the queries to run in order for a mode.
func (s *SearchService) queries(
	ctx context.Context,
	searcher driven.IndexSearcher,
	tokens []string,
	mode domain.SearchMode,
) ([]domain.Query, error) {
	if mode == domain.SearchModeStrict {
		return []domain.Query{exactQuery(tokens)}, nil
	}

	fuzzy, err := s.fuzzyQuery(ctx, searcher, tokens)
	if err != nil {
		return nil, err
	}
	return []domain.Query{fuzzy, prefixQuery(tokens)}, nil
}

func exactQuery(tokens []string) domain.Query {
	q := domain.Query{Clauses: make([]domain.QueryClause, len(tokens))}
	for i, t := range tokens {
		q.Clauses[i] = domain.QueryClause{Terms: []string{t}}
	}
	return q
}

func prefixQuery(tokens []string) domain.Query {
	q := domain.Query{Clauses: make([]domain.QueryClause, len(tokens))}
	for i, t := range tokens {
		q.Clauses[i] = domain.QueryClause{Terms: []string{t}, Prefix: true}
	}
	return q
}

// fuzzyQuery expands every token to the vocabulary terms within the fuzzy
// distance. A token without any close term makes the query empty.
func (s *SearchService) fuzzyQuery(
	ctx context.Context,
	searcher driven.IndexSearcher,
	tokens []string,
) (domain.Query, error) {
	var vocab []domain.TermStat
	for _, field := range []domain.Field{domain.FieldLabel, domain.FieldContent} {
		terms, err := searcher.Terms(ctx, field)
		if err != nil {
			return domain.Query{}, err
		}
		vocab = append(vocab, terms...)
	}
	corrector := NewCorrector(vocab)

	q := domain.Query{Clauses: make([]domain.QueryClause, 0, len(tokens))}
	for _, t := range tokens {
		terms := corrector.Within(t, s.fuzzyMaxDistance)
		if len(terms) == 0 {
			return domain.Query{}, nil
		}
		q.Clauses = append(q.Clauses, domain.QueryClause{Terms: uniqueStrings(terms)})
	}
	return q, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// FindSuggestions replaces, one at a time, every keyword longer than
// domain.MinKeywordLen with close label and content terms, and keeps the
// sentences a strict search still matches. The result is sorted.
func (s *SearchService) FindSuggestions(ctx context.Context, sentence string) ([]string, error) {
	keywords := strings.Split(sentence, " ")

	var candidates []string
	err := s.engine.WithSearcher(func(searcher driven.IndexSearcher) error {
		labelTerms, err := searcher.Terms(ctx, domain.FieldLabel)
		if err != nil {
			return err
		}
		contentTerms, err := searcher.Terms(ctx, domain.FieldContent)
		if err != nil {
			return err
		}
		labels := NewCorrector(labelTerms)
		content := NewCorrector(contentTerms)

		for i, keyword := range keywords {
			if utf8.RuneCountInString(keyword) <= domain.MinKeywordLen {
				continue
			}
			words := labels.Suggest(keyword, labelSuggestions)
			words = append(words, content.Suggest(keyword, contentSuggestions)...)
			for _, w := range words {
				variant := slices.Clone(keywords)
				variant[i] = w
				candidates = append(candidates, strings.Join(variant, " "))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find suggestions: %w", err)
	}

	// Verified outside WithSearcher: FindDocuments takes the searcher lock.
	verify := domain.SearchOptions{Limit: 1, Sort: false, Mode: domain.SearchModeStrict}
	suggestions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		docs, err := s.FindDocuments(ctx, c, verify)
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			suggestions = append(suggestions, c)
		}
	}
	slices.Sort(suggestions)

	s.engine.metrics.SuggestionsTotal.Add(float64(len(suggestions)))
	return suggestions, nil
}
