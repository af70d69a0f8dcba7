// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - IndexStore: Full-text index with snapshot searchers and a single writer (SQLite FTS5)
//   - ModelStore: Label classifier model persistence
//   - PageCounter: Per-label page range allocation
//   - DocumentTypeRegistry: Recognises and opens document directories
//   - SettingsStore: User configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or doctype package
package driven
