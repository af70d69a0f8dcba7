// Package memory provides in-memory implementations of driven ports.
// Service and adapter tests use them in place of the SQLite and file
// stores.
package memory
