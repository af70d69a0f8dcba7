package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// indexFileName is the index database inside the index directory.
const indexFileName = "index.db"

// indexSchemaSignature identifies the index layout. Changing any statement
// in indexSchema requires a new signature so that existing indexes get
// rebuilt.
const indexSchemaSignature = "docid,doctype,docfilehash,content,label,date,last_read;fts5-unicode61-nodiacritics;v1"

var indexSchema = []string{
	`CREATE TABLE index_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE records (
		id INTEGER PRIMARY KEY,
		docid TEXT NOT NULL UNIQUE,
		doctype TEXT NOT NULL,
		docfilehash TEXT NOT NULL,
		content TEXT NOT NULL,
		label TEXT NOT NULL,
		date INTEGER NOT NULL,
		last_read INTEGER NOT NULL
	)`,
	`CREATE INDEX records_docfilehash ON records (docfilehash)`,
	`CREATE VIRTUAL TABLE records_fts USING fts5 (
		label, content,
		tokenize = 'unicode61 remove_diacritics 2'
	)`,
	`CREATE VIRTUAL TABLE records_vocab USING fts5vocab (records_fts, 'col')`,
}

// IndexStore is the full-text index, an FTS5 table over label and content
// plus a plain table for the stored fields.
type IndexStore struct {
	db   *sql.DB
	path string

	// writerSlot holds a token while a writer is open.
	writerSlot chan struct{}
}

var _ driven.IndexStore = (*IndexStore)(nil)

// OpenIndexStore opens the index in dir. A missing, unreadable or outdated
// index is deleted and created again empty.
func OpenIndexStore(dir string) (*IndexStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	path := filepath.Join(dir, indexFileName)

	db, err := openIndexDB(path)
	if err == nil {
		var current bool
		current, err = schemaIsCurrent(db)
		if err == nil && current {
			return newIndexStore(db, path), nil
		}
		db.Close()
		if err == nil {
			logger.Info("index schema at %s is missing or outdated, rebuilding", path)
		}
	}
	if err != nil {
		logger.Warn("index at %s is unreadable, rebuilding: %v", path, err)
	}

	if err := removeIndexFiles(path); err != nil {
		return nil, err
	}
	db, err = openIndexDB(path)
	if err != nil {
		return nil, err
	}
	if err := createIndexSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return newIndexStore(db, path), nil
}

func newIndexStore(db *sql.DB, path string) *IndexStore {
	return &IndexStore{
		db:         db,
		path:       path,
		writerSlot: make(chan struct{}, 1),
	}
}

func openIndexDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return db, nil
}

func schemaIsCurrent(db *sql.DB) (bool, error) {
	var tables int
	err := db.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'index_meta'",
	).Scan(&tables)
	if err != nil {
		return false, fmt.Errorf("reading index schema: %w", err)
	}
	if tables == 0 {
		return false, nil
	}

	var signature string
	err = db.QueryRow("SELECT value FROM index_meta WHERE key = 'schema'").Scan(&signature)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading index schema: %w", err)
	}
	return signature == indexSchemaSignature, nil
}

func createIndexSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("creating index schema: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range indexSchema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("creating index schema: %w", err)
		}
	}
	if _, err := tx.Exec(
		"INSERT INTO index_meta (key, value) VALUES ('schema', ?)", indexSchemaSignature,
	); err != nil {
		return fmt.Errorf("recording index schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("creating index schema: %w", err)
	}
	return nil
}

func removeIndexFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing index file: %w", err)
		}
	}
	return nil
}

// Path returns the index database file path.
func (s *IndexStore) Path() string {
	return s.path
}

// OpenWriter starts the single write transaction.
func (s *IndexStore) OpenWriter(ctx context.Context) (driven.IndexWriter, error) {
	select {
	case s.writerSlot <- struct{}{}:
	default:
		return nil, domain.ErrIndexLocked
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		<-s.writerSlot
		return nil, fmt.Errorf("opening index writer: %w", err)
	}
	return &indexWriter{store: s, tx: tx}, nil
}

// OpenSearcher opens a read snapshot of the committed index. The snapshot
// outlives ctx; it ends with Close.
func (s *IndexStore) OpenSearcher(ctx context.Context) (driven.IndexSearcher, error) {
	tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("opening index searcher: %w", err)
	}
	// A deferred transaction takes its snapshot at the first read.
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT count(*) FROM records").Scan(&count); err != nil {
		tx.Rollback() //nolint:errcheck // already failing
		return nil, fmt.Errorf("opening index searcher: %w", err)
	}
	return &indexSearcher{tx: tx, count: count, terms: make(map[domain.Field][]domain.TermStat)}, nil
}

// Destroy closes the index and removes its files.
func (s *IndexStore) Destroy() error {
	if err := s.db.Close(); err != nil {
		logger.Warn("closing index before destroy: %v", err)
	}
	return removeIndexFiles(s.path)
}

// Close closes the database connection.
func (s *IndexStore) Close() error {
	return s.db.Close()
}

// ==================== Writer ====================

// indexWriter implements driven.IndexWriter.
type indexWriter struct {
	store *IndexStore
	tx    *sql.Tx
	once  sync.Once
}

var _ driven.IndexWriter = (*indexWriter)(nil)

// Delete removes the record of a document from both tables.
func (w *indexWriter) Delete(ctx context.Context, docID string) error {
	var id int64
	err := w.tx.QueryRowContext(ctx, "SELECT id FROM records WHERE docid = ?", docID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up record %s: %w", docID, err)
	}
	if _, err := w.tx.ExecContext(ctx, "DELETE FROM records_fts WHERE rowid = ?", id); err != nil {
		return fmt.Errorf("deleting record %s: %w", docID, err)
	}
	if _, err := w.tx.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting record %s: %w", docID, err)
	}
	return nil
}

// Insert adds a record to both tables under the same rowid.
func (w *indexWriter) Insert(ctx context.Context, rec domain.IndexRecord) error {
	res, err := w.tx.ExecContext(ctx, `
		INSERT INTO records (docid, doctype, docfilehash, content, label, date, last_read)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.DocID, rec.DocType, rec.FileHash, rec.Content, rec.Label,
		rec.Date.UnixNano(), rec.LastRead.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", rec.DocID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", rec.DocID, err)
	}
	if _, err := w.tx.ExecContext(ctx,
		"INSERT INTO records_fts (rowid, label, content) VALUES (?, ?, ?)",
		id, rec.Label, rec.Content,
	); err != nil {
		return fmt.Errorf("indexing record %s: %w", rec.DocID, err)
	}
	return nil
}

// Commit publishes the staged changes and releases the writer.
func (w *indexWriter) Commit() error {
	err := domain.ErrTransactionClosed
	w.once.Do(func() {
		defer w.release()
		err = w.tx.Commit()
		if err != nil {
			err = fmt.Errorf("committing index: %w", err)
		}
	})
	return err
}

// Cancel drops the staged changes and releases the writer.
func (w *indexWriter) Cancel() error {
	var err error
	w.once.Do(func() {
		defer w.release()
		if rbErr := w.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = fmt.Errorf("cancelling index changes: %w", rbErr)
		}
	})
	return err
}

func (w *indexWriter) release() {
	<-w.store.writerSlot
}

// ==================== Searcher ====================

// indexSearcher implements driven.IndexSearcher over a read transaction.
type indexSearcher struct {
	tx    *sql.Tx
	count int

	mu    sync.Mutex
	terms map[domain.Field][]domain.TermStat
}

var _ driven.IndexSearcher = (*indexSearcher)(nil)

// Search runs query against the FTS table.
func (s *indexSearcher) Search(
	ctx context.Context,
	query domain.Query,
	limit int,
	sorted bool,
) ([]domain.SearchHit, error) {
	match := matchExpression(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	order := "score"
	if sorted {
		order = "score, r.date DESC"
	}
	rows, err := s.tx.QueryContext(ctx, `
		SELECT r.docid, bm25(records_fts) AS score
		FROM records_fts
		JOIN records r ON r.id = records_fts.rowid
		WHERE records_fts MATCH ?
		ORDER BY `+order+`
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var hit domain.SearchHit
		var rank float64
		if err := rows.Scan(&hit.DocID, &rank); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		// bm25() is lower for better matches.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return hits, nil
}

// All returns the reconciliation entry of every record.
func (s *indexSearcher) All(ctx context.Context) ([]domain.IndexEntry, error) {
	rows, err := s.tx.QueryContext(ctx, "SELECT docid, doctype, last_read FROM records ORDER BY docid")
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var entries []domain.IndexEntry
	for rows.Next() {
		var e domain.IndexEntry
		var lastRead int64
		if err := rows.Scan(&e.DocID, &e.DocType, &lastRead); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		e.LastRead = time.Unix(0, lastRead)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return entries, nil
}

// Terms returns the vocabulary of a field. The result is cached for the
// lifetime of the snapshot.
func (s *indexSearcher) Terms(ctx context.Context, field domain.Field) ([]domain.TermStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if terms, ok := s.terms[field]; ok {
		return terms, nil
	}

	rows, err := s.tx.QueryContext(ctx,
		"SELECT term, doc FROM records_vocab WHERE col = ? ORDER BY term", string(field))
	if err != nil {
		return nil, fmt.Errorf("reading %s vocabulary: %w", field, err)
	}
	defer rows.Close()

	var terms []domain.TermStat
	for rows.Next() {
		var ts domain.TermStat
		if err := rows.Scan(&ts.Term, &ts.DocFreq); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms = append(terms, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s vocabulary: %w", field, err)
	}
	s.terms[field] = terms
	return terms, nil
}

// HasFileHash reports whether a record carries the given hash.
func (s *indexSearcher) HasFileHash(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.tx.QueryRowContext(ctx,
		"SELECT 1 FROM records WHERE docfilehash = ? LIMIT 1", hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up file hash: %w", err)
	}
	return true, nil
}

// Count returns the number of records in the snapshot.
func (s *indexSearcher) Count(context.Context) (int, error) {
	return s.count, nil
}

// Close releases the snapshot.
func (s *indexSearcher) Close() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("closing index searcher: %w", err)
	}
	return nil
}

// matchExpression renders a query in FTS5 syntax: clauses are ANDed, the
// terms of a clause are ORed, and every term is quoted.
func matchExpression(q domain.Query) string {
	parts := make([]string, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		terms := make([]string, 0, len(c.Terms))
		for _, t := range c.Terms {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, quoteTerm(t))
			}
		}
		if len(terms) == 0 {
			continue
		}
		switch {
		case c.Prefix:
			parts = append(parts, terms[0]+"*")
		case len(terms) == 1:
			parts = append(parts, terms[0])
		default:
			parts = append(parts, "("+strings.Join(terms, " OR ")+")")
		}
	}
	return strings.Join(parts, " AND ")
}

func quoteTerm(t string) string {
	return `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
}
