package mcp

import (
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides document search and suggestions.
	Search driving.SearchService

	// Labels lists the known labels.
	Labels driving.LabelService

	// Documents gives access to documents and label guesses.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Labels and Documents are optional: their tools and resources
	// report not found without them.
	return nil
}
