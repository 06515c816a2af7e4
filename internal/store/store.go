// Package store persists the book catalog as JSON, YAML, SQLite or a
// printable PDF, and writes the extraction manifest sidecar.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperifyio/bookmatch/internal/books"
)

var (
	// ErrUnknownFormat is returned for file extensions with no codec.
	ErrUnknownFormat = errors.New("unknown catalog format")
	// ErrWriteOnly is returned when loading a format that can only be written.
	ErrWriteOnly = errors.New("catalog format is write-only")
	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("not found")
)

// Format is a catalog encoding chosen by file extension.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
	FormatPDF    Format = "pdf"
)

// FormatOf maps a path's extension to its Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Load reads a catalog from path.
func Load(ctx context.Context, path string) ([]books.Record, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatJSON:
		return ReadJSON(path)
	case FormatYAML:
		return ReadYAML(path)
	case FormatSQLite:
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.All(ctx)
	}
	return nil, fmt.Errorf("%w: %s", ErrWriteOnly, f)
}

// Save writes records to path in the format implied by its extension.
func Save(ctx context.Context, path string, records []books.Record) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		return WriteJSON(path, records)
	case FormatYAML:
		return WriteYAML(path, records)
	case FormatPDF:
		return WritePDF(path, records)
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Replace(ctx, records)
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
