package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperifyio/bookmatch/internal/books"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	position        INTEGER PRIMARY KEY,
	rank            INTEGER NOT NULL UNIQUE,
	title           TEXT NOT NULL,
	author          TEXT NOT NULL,
	other_names     TEXT NOT NULL DEFAULT '',
	cover_reference TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	amazon          TEXT NOT NULL DEFAULT '',
	bookshop        TEXT NOT NULL DEFAULT '',
	goodreads       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS results (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	payload    TEXT NOT NULL
);`

// SQLite is a catalog and results database backed by modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Replace swaps the whole catalog for records in one transaction.
func (s *SQLite) Replace(ctx context.Context, records []books.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO books
		(position, rank, title, author, other_names, cover_reference, description, amazon, bookshop, goodreads)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.Rank, r.Title, r.Author, r.OtherNames, r.CoverReference,
			r.Description, r.Links.Amazon, r.Links.Bookshop, r.Links.Goodreads); err != nil {
			return fmt.Errorf("insert rank %d: %w", r.Rank, err)
		}
	}
	return tx.Commit()
}

const selectBooks = `SELECT rank, title, author, other_names, cover_reference, description, amazon, bookshop, goodreads FROM books`

func scanRecord(row interface{ Scan(...any) error }) (books.Record, error) {
	var r books.Record
	err := row.Scan(&r.Rank, &r.Title, &r.Author, &r.OtherNames, &r.CoverReference, &r.Description,
		&r.Links.Amazon, &r.Links.Bookshop, &r.Links.Goodreads)
	return r, err
}

// All returns the catalog in its saved order.
func (s *SQLite) All(ctx context.Context) ([]books.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectBooks+` ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByRank returns the record with the given rank or ErrNotFound.
func (s *SQLite) ByRank(ctx context.Context, rank int) (books.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, selectBooks+` WHERE rank = ?`, rank))
	if errors.Is(err, sql.ErrNoRows) {
		return books.Record{}, fmt.Errorf("rank %d: %w", rank, ErrNotFound)
	}
	return r, err
}

var linkColumns = map[books.LinkCategory]string{
	books.Amazon:    "amazon",
	books.Bookshop:  "bookshop",
	books.Goodreads: "goodreads",
}

// SetLink updates one link of the record with the given rank.
func (s *SQLite) SetLink(ctx context.Context, rank int, cat books.LinkCategory, url string) error {
	col, ok := linkColumns[cat]
	if !ok {
		return fmt.Errorf("unknown link category %q", cat)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE books SET `+col+` = ? WHERE rank = ?`, url, rank)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rank %d: %w", rank, ErrNotFound)
	}
	return nil
}

// PutResult stores a serialized recommendation result under id.
func (s *SQLite) PutResult(ctx context.Context, id string, createdAt time.Time, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO results (id, created_at, payload) VALUES (?, ?, ?)`,
		id, createdAt.UTC().Format(time.RFC3339Nano), string(payload))
	return err
}

// GetResult returns the payload stored under id or ErrNotFound.
func (s *SQLite) GetResult(ctx context.Context, id string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM results WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}
