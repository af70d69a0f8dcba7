// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-docs. It lets AI assistants search the document collection, get
// spelling suggestions and label predictions.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
