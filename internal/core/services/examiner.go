package services

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// ExamineCallbacks receive the documents of the work directory by
// classification. A nil callback ignores its class. A callback error
// stops the examination.
type ExamineCallbacks struct {
	OnNew       func(doc domain.Document) error
	OnModified  func(doc domain.Document) error
	OnDeleted   func(doc domain.Document) error
	OnUnchanged func(doc domain.Document) error
}

func (c ExamineCallbacks) call(fn func(domain.Document) error, doc domain.Document) error {
	if fn == nil {
		return nil
	}
	return fn(doc)
}

// DirectoryExaminer compares the work directory with the index. It never
// changes the index itself.
type DirectoryExaminer struct {
	engine *Engine
}

// Examine lists the work directory and classifies every document against
// an index snapshot of its own. Documents in the index but missing on disk
// are reported deleted as page-less placeholders.
//
//nolint:gocyclo // Sequential classification of each directory entry
func (x *DirectoryExaminer) Examine(
	ctx context.Context,
	cb ExamineCallbacks,
	progress domain.ProgressFunc,
) error {
	progress = domain.OrNoProgress(progress)

	// Runs next to updaters, so it does not share the engine searcher.
	snap, err := x.engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	entries, err := snap.All(ctx)
	closeErr := snap.Close()
	if err != nil {
		return fmt.Errorf("examine index: %w", err)
	}
	if closeErr != nil {
		logger.Warn("closing examiner snapshot: %v", closeErr)
	}

	indexed := make(map[string]domain.IndexEntry, len(entries))
	for _, e := range entries {
		indexed[e.DocID] = e
	}

	dirEntries, err := os.ReadDir(x.engine.rootDir)
	if err != nil {
		return fmt.Errorf("examine work directory: %w", err)
	}

	for i, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}
		docID := de.Name()
		entry, known := indexed[docID]

		doc, ok := x.engine.Document(docID)
		if ok {
			doc.DropCache()
		} else {
			doc, err = x.engine.Instantiate(docID, entry.DocType)
			if err != nil {
				logger.Debug("skipping %s: %v", docID, err)
				progress(i, len(dirEntries), domain.StepChecking, nil)
				continue
			}
		}

		if !known {
			if err := cb.call(cb.OnNew, doc); err != nil {
				return err
			}
		} else {
			// Left in indexed, so it is reported deleted below.
			lastMod, err := doc.LastModified()
			if err != nil {
				logger.Warn("treating %s as deleted: %v", docID, err)
				progress(i, len(dirEntries), domain.StepChecking, nil)
				continue
			}
			delete(indexed, docID)
			if !lastMod.Equal(entry.LastRead) {
				err = cb.call(cb.OnModified, doc)
			} else {
				err = cb.call(cb.OnUnchanged, doc)
			}
			if err != nil {
				return err
			}
		}
		progress(i, len(dirEntries), domain.StepChecking, doc)
	}

	for _, e := range entries {
		if _, gone := indexed[e.DocID]; !gone {
			continue
		}
		doc := x.engine.types.Placeholder(x.engine.rootDir, e.DocID)
		if err := cb.call(cb.OnDeleted, doc); err != nil {
			return err
		}
	}

	progress(1, 1, domain.StepChecking, nil)
	return nil
}
