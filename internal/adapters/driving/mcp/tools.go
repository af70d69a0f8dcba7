package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// defaultLimit caps find_documents results when the caller gives no limit.
const defaultLimit = 10

// errNoDocumentService is returned by tools that need the document service.
var errNoDocumentService = errors.New("mcp: document service is not available")

// FindDocumentsInput is the input schema for the find_documents tool.
type FindDocumentsInput struct {
	Query  string `json:"query" jsonschema:"words to look for in document labels and content"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Strict bool   `json:"strict,omitempty" jsonschema:"match words exactly instead of tolerating typos"`
}

// FindDocumentsOutput is the output schema for the find_documents tool.
type FindDocumentsOutput struct {
	Results []DocumentOutput `json:"results"`
	Count   int              `json:"count"`
}

// DocumentOutput represents a single document.
type DocumentOutput struct {
	DocumentID string   `json:"document_id"`
	Type       string   `json:"type"`
	Date       string   `json:"date"`
	Pages      int      `json:"pages"`
	Labels     []string `json:"labels,omitempty"`
	Path       string   `json:"path"`
}

// FindSuggestionsInput is the input schema for the find_suggestions tool.
type FindSuggestionsInput struct {
	Sentence string `json:"sentence" jsonschema:"search sentence to correct"`
}

// FindSuggestionsOutput is the output schema for the find_suggestions tool.
type FindSuggestionsOutput struct {
	Suggestions []string `json:"suggestions"`
}

// GuessLabelsInput is the input schema for the guess_labels tool.
type GuessLabelsInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document, as returned by find_documents"`
}

// GuessLabelsOutput is the output schema for the guess_labels tool.
type GuessLabelsOutput struct {
	Labels []string `json:"labels"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_documents",
		Description: "Search documents by label and content, tolerating typos unless strict",
	}, s.handleFindDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_suggestions",
		Description: "Suggest corrected search sentences that match at least one document",
	}, s.handleFindSuggestions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "guess_labels",
		Description: "Predict which known labels a document deserves",
	}, s.handleGuessLabels)
}

// handleFindDocuments handles the find_documents tool invocation.
func (s *Server) handleFindDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindDocumentsInput,
) (*mcp.CallToolResult, FindDocumentsOutput, error) {
	opts := domain.DefaultSearchOptions()
	opts.Limit = input.Limit
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if input.Strict {
		opts.Mode = domain.SearchModeStrict
	}

	docs, err := s.ports.Search.FindDocuments(ctx, input.Query, opts)
	if err != nil {
		return nil, FindDocumentsOutput{}, err
	}
	if len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}

	output := FindDocumentsOutput{
		Results: make([]DocumentOutput, len(docs)),
		Count:   len(docs),
	}
	for i, doc := range docs {
		output.Results[i] = documentOutput(doc)
	}
	return nil, output, nil
}

func documentOutput(doc domain.Document) DocumentOutput {
	return DocumentOutput{
		DocumentID: doc.ID(),
		Type:       doc.Type(),
		Date:       doc.Date().Format("2006-01-02"),
		Pages:      doc.PageCount(),
		Labels:     doc.Labels().Names(),
		Path:       doc.Path(),
	}
}

// handleFindSuggestions handles the find_suggestions tool invocation.
func (s *Server) handleFindSuggestions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindSuggestionsInput,
) (*mcp.CallToolResult, FindSuggestionsOutput, error) {
	suggestions, err := s.ports.Search.FindSuggestions(ctx, input.Sentence)
	if err != nil {
		return nil, FindSuggestionsOutput{}, err
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return nil, FindSuggestionsOutput{Suggestions: suggestions}, nil
}

// handleGuessLabels handles the guess_labels tool invocation.
func (s *Server) handleGuessLabels(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GuessLabelsInput,
) (*mcp.CallToolResult, GuessLabelsOutput, error) {
	if s.ports.Documents == nil {
		return nil, GuessLabelsOutput{}, errNoDocumentService
	}
	labels, err := s.ports.Documents.GuessLabels(ctx, input.DocumentID)
	if err != nil {
		return nil, GuessLabelsOutput{}, err
	}
	return nil, GuessLabelsOutput{Labels: domain.LabelSet(labels).Names()}, nil
}
