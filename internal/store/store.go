// Package store keeps an index of finished renders in SQLite. A render is
// keyed by the digest of its source, the output format and the digest of the
// layout configuration; it points at the content-addressed blobs that hold
// the rendered files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS renders (
	source      TEXT NOT NULL,
	format      TEXT NOT NULL,
	layout      TEXT NOT NULL,
	title       TEXT NOT NULL,
	pages       INTEGER NOT NULL,
	diagnostics TEXT NOT NULL DEFAULT '[]',
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (source, format, layout)
);
CREATE TABLE IF NOT EXISTS render_outputs (
	source TEXT NOT NULL,
	format TEXT NOT NULL,
	layout TEXT NOT NULL,
	seq    INTEGER NOT NULL,
	name   TEXT NOT NULL,
	blake3 TEXT NOT NULL,
	PRIMARY KEY (source, format, layout, seq),
	FOREIGN KEY (source, format, layout) REFERENCES renders (source, format, layout) ON DELETE CASCADE
);
`

// Key identifies one render.
type Key struct {
	Source string
	Format string
	Layout string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", short(k.Source), k.Format, short(k.Layout))
}

func short(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// Output is one rendered file stored in the CAS.
type Output struct {
	Name   string
	BLAKE3 string
}

// Record is one indexed render.
type Record struct {
	Key
	Title   string
	Pages   int
	Outputs []Output
	// Diagnostics are the compiler warnings of the source, replayed when
	// the render is served from the index.
	Diagnostics []cerrors.Diagnostic
	CreatedAt   time.Time
}

// Store is the render index.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the index at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// OpenReadOnly opens an existing index without creating or changing it.
// Writes through the returned Store fail.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the record for key. A missing record is not an error.
func (s *Store) Lookup(ctx context.Context, key Key) (*Record, bool, error) {
	rec := &Record{Key: key}
	var created int64
	var diags string
	err := s.db.QueryRowContext(ctx,
		`SELECT title, pages, diagnostics, created_at FROM renders WHERE source = ? AND format = ? AND layout = ?`,
		key.Source, key.Format, key.Layout,
	).Scan(&rec.Title, &rec.Pages, &diags, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: lookup %s: %w", key, err)
	}
	rec.CreatedAt = time.Unix(created, 0).UTC()
	if err := json.Unmarshal([]byte(diags), &rec.Diagnostics); err != nil {
		return nil, false, fmt.Errorf("store: lookup %s: diagnostics: %w", key, err)
	}

	outputs, err := s.outputs(ctx, key)
	if err != nil {
		return nil, false, err
	}
	rec.Outputs = outputs
	return rec, true, nil
}

func (s *Store) outputs(ctx context.Context, key Key) ([]Output, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, blake3 FROM render_outputs WHERE source = ? AND format = ? AND layout = ? ORDER BY seq`,
		key.Source, key.Format, key.Layout)
	if err != nil {
		return nil, fmt.Errorf("store: outputs %s: %w", key, err)
	}
	defer rows.Close()

	var out []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Name, &o.BLAKE3); err != nil {
			return nil, fmt.Errorf("store: outputs %s: %w", key, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Put records rec, replacing any earlier render with the same key.
// CreatedAt is set when it is zero.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC().Truncate(time.Second)
	}

	diags, err := json.Marshal(rec.Diagnostics)
	if err != nil {
		return fmt.Errorf("store: put %s: diagnostics: %w", rec.Key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	k := rec.Key
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM render_outputs WHERE source = ? AND format = ? AND layout = ?`,
		k.Source, k.Format, k.Layout); err != nil {
		return fmt.Errorf("store: put %s: %w", k, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO renders (source, format, layout, title, pages, diagnostics, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		k.Source, k.Format, k.Layout, rec.Title, rec.Pages, string(diags), rec.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("store: put %s: %w", k, err)
	}
	for i, o := range rec.Outputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO render_outputs (source, format, layout, seq, name, blake3) VALUES (?, ?, ?, ?, ?, ?)`,
			k.Source, k.Format, k.Layout, i, o.Name, o.BLAKE3); err != nil {
			return fmt.Errorf("store: put %s output %s: %w", k, o.Name, err)
		}
	}
	return tx.Commit()
}

// Delete removes the record for key.
func (s *Store) Delete(ctx context.Context, key Key) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"render_outputs", "renders"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE source = ? AND format = ? AND layout = ?`,
			key.Source, key.Format, key.Layout); err != nil {
			return fmt.Errorf("store: delete %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// List returns every record, newest first. Outputs are not loaded.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, format, layout, title, pages, created_at FROM renders
		 ORDER BY created_at DESC, source, format, layout`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var created int64
		if err := rows.Scan(&r.Source, &r.Format, &r.Layout, &r.Title, &r.Pages, &created); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
