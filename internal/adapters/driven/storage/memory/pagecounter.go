package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
)

// Ensure PageCounter implements the interface.
var _ driven.PageCounter = (*PageCounter)(nil)

// PageCounter is an in-memory implementation of driven.PageCounter.
type PageCounter struct {
	mu   sync.Mutex
	next map[string]int
}

// NewPageCounter creates a new in-memory page counter.
func NewPageCounter() *PageCounter {
	return &PageCounter{
		next: make(map[string]int),
	}
}

// Target reserves pages pages under label and returns the first one.
func (c *PageCounter) Target(_ context.Context, label string, pages int) (int, error) {
	if pages < 0 {
		return 0, fmt.Errorf("reserving %d pages: %w", pages, domain.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := domain.NewLabel(label, "").Key()
	base := c.current(key)
	c.next[key] = base + pages
	return base, nil
}

// Current returns the next page that Target would hand out.
func (c *PageCounter) Current(_ context.Context, label string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current(domain.NewLabel(label, "").Key()), nil
}

func (c *PageCounter) current(key string) int {
	if n, ok := c.next[key]; ok {
		return n
	}
	return 1
}
