// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The Engine owns the index, the document registry and the classifier
// bank. The other services are thin views over it.
package services
