package domain

import (
	"math/big"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// SearchMode defines how query words are matched against the index.
type SearchMode string

// Available search modes.
const (
	// SearchModeFuzzy expands each word to close vocabulary terms, then
	// falls back to prefix matching.
	SearchModeFuzzy SearchMode = "fuzzy"

	// SearchModeStrict only matches the words as typed.
	SearchModeStrict SearchMode = "strict"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeFuzzy, SearchModeStrict:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeFuzzy:
		return "Fuzzy (typo tolerant, then prefix)"
	case SearchModeStrict:
		return "Strict (exact words)"
	default:
		return unknownDescription
	}
}

// SearchOptions configures FindDocuments.
type SearchOptions struct {
	// Limit caps the number of results. Zero or less means no limit.
	Limit int
	// Sort orders hits by relevance, then date descending.
	Sort bool
	Mode SearchMode
}

// DefaultSearchOptions returns unlimited, sorted, fuzzy search options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Sort: true, Mode: SearchModeFuzzy}
}

// MinKeywordLen is the length a keyword must exceed to get spelling suggestions.
const MinKeywordLen = 3

// Field names an index field that can be searched.
type Field string

// Searchable index fields.
const (
	FieldLabel   Field = "label"
	FieldContent Field = "content"
)

// IndexRecord is the per-document row of the full-text index.
type IndexRecord struct {
	DocID    string
	DocType  string
	FileHash string
	Content  string
	Label    string
	Date     time.Time
	LastRead time.Time
}

// IndexEntry is the part of an IndexRecord needed to reconcile the index
// with the work directory.
type IndexEntry struct {
	DocID    string
	DocType  string
	LastRead time.Time
}

// Query is a conjunction of clauses. Every clause must match the label
// or the content field.
type Query struct {
	Clauses []QueryClause
}

// IsEmpty reports whether the query has no clause.
func (q Query) IsEmpty() bool {
	return len(q.Clauses) == 0
}

// QueryClause matches any of its terms. With Prefix set it holds a single
// term matched as a prefix.
type QueryClause struct {
	Terms  []string
	Prefix bool
}

// SearchHit is one matching document.
type SearchHit struct {
	DocID string
	Score float64
}

// TermStat is a vocabulary term with the number of documents containing it.
type TermStat struct {
	Term    string
	DocFreq int
}

// FileHash is the sha256 of a document's primary file.
type FileHash [32]byte

// Hex renders the hash as an unsigned big-endian integer in upper-case
// hexadecimal, without leading zeros.
func (h FileHash) Hex() string {
	return strings.ToUpper(new(big.Int).SetBytes(h[:]).Text(16))
}
