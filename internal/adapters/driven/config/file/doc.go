// Package file provides the TOML file implementation of driven.SettingsStore.
//
// Settings live in ~/.sercha-docs/config.toml by default. Environment
// variables override the file:
//
//   - SERCHA_DOCS_WORKDIR: the work directory
//   - SERCHA_DOCS_DATADIR: the data directory
//   - SERCHA_DOCS_VERBOSE: verbose logging ("1", "true", ...)
package file
