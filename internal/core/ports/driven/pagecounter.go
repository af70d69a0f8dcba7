package driven

import "context"

// PageCounter allocates contiguous page ranges per label, so documents
// filed under a label can be numbered like pages of a binder.
type PageCounter interface {
	// Target reserves pages pages under label and returns the first one.
	Target(ctx context.Context, label string, pages int) (int, error)

	// Current returns the next page that Target would hand out.
	Current(ctx context.Context, label string) (int, error)
}
