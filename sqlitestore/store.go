// Package sqlitestore persists a content collection in SQLite so a build step
// can index the content directory once and servers can query the result.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubcontent/content"
)

// Store wraps a SQLite database holding indexed documents. Its natural
// enumeration order is the order documents were indexed in.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while an index rebuild is writing; the busy
	// timeout makes the writer wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    seq INTEGER PRIMARY KEY,
    path TEXT NOT NULL,
    draft INTEGER NOT NULL DEFAULT 0,
    partial INTEGER NOT NULL DEFAULT 0,
    fields TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_path ON documents (path);
`)
	return err
}

// Index replaces the stored collection with docs, keeping their order.
func (s *Store) Index(ctx context.Context, docs []content.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (seq, path, draft, partial, fields) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, doc := range docs {
		fields, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", doc.Path(), err)
		}
		if _, err := stmt.ExecContext(ctx, i+1, doc.Path(), boolInt(doc.Draft()), boolInt(doc.Partial()), string(fields)); err != nil {
			return fmt.Errorf("insert %s: %w", doc.Path(), err)
		}
	}
	return tx.Commit()
}

// Count returns the number of indexed documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, content.Unavailable("count", err)
	}
	return n, nil
}

// Find implements content.Store. The source and boolean flag conditions are
// narrowed in SQL; the full spec is then evaluated in memory.
func (s *Store) Find(ctx context.Context, spec content.Spec) ([]content.Document, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	docs, err := s.candidates(ctx, spec)
	if err != nil {
		return nil, content.Unavailable("find", err)
	}
	return content.Apply(docs, spec), nil
}

// FindOne implements content.Store.
func (s *Store) FindOne(ctx context.Context, spec content.Spec) (content.Document, bool, error) {
	if err := spec.Validate(); err != nil {
		return nil, false, err
	}
	docs, err := s.candidates(ctx, spec)
	if err != nil {
		return nil, false, content.Unavailable("find one", err)
	}
	doc, ok := content.ApplyOne(docs, spec)
	return doc, ok, nil
}

func (s *Store) candidates(ctx context.Context, spec content.Spec) ([]content.Document, error) {
	where := []string{"1 = 1"}
	var args []any
	if prefix := spec.SourcePrefix(); prefix != "" {
		where = append(where, `(path = ? OR path LIKE ? ESCAPE '\')`)
		args = append(args, prefix, escapeLike(prefix)+"/%")
	}
	for _, c := range spec.Filter {
		if clause, ok := flagClause(c); ok {
			where = append(where, clause)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT fields FROM documents WHERE `+strings.Join(where, " AND ")+` ORDER BY seq`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []content.Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc content.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// flagClause narrows boolean flag conditions in SQL. The flag columns store
// missing flags as 0, matching content.Document's defaults.
func flagClause(c content.Condition) (string, bool) {
	var column string
	switch c.Field {
	case content.FieldDraft:
		column = "draft"
	case content.FieldPartial:
		column = "partial"
	default:
		return "", false
	}
	want, ok := c.Value.(bool)
	if !ok {
		return "", false
	}
	switch c.Op {
	case content.OpEq:
		return fmt.Sprintf("%s = %d", column, boolInt(want)), true
	case content.OpNe:
		return fmt.Sprintf("%s = %d", column, boolInt(!want)), true
	default:
		return "", false
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
