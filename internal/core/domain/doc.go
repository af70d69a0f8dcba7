// Package domain defines the core business entities for sercha-docs.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Document: A document directory on disk, seen through its capabilities
//   - Label: A named, coloured tag attached to documents
//   - IndexRecord: The per-document row kept in the full-text index
//   - ClassifierModel: The yes/no naive Bayes model backing label guessing
//   - Settings: The user configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, golang.org/x/text (normalisation),
//     github.com/lucasb-eyer/go-colorful (label colours)
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
