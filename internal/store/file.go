package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hyperifyio/bookmatch/internal/books"
)

// MarshalJSON renders records as an indented JSON array. HTML characters are
// written as-is so titles like "Tom & Jerry" stay readable.
func MarshalJSON(records []books.Record) ([]byte, error) {
	if records == nil {
		records = []books.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes records to path as a JSON array.
func WriteJSON(path string, records []books.Record) error {
	b, err := MarshalJSON(records)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return writeAtomic(path, b)
}

// ReadJSON reads a JSON array of records.
func ReadJSON(path string) ([]books.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []books.Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// WriteYAML writes records to path as a YAML sequence.
func WriteYAML(path string, records []books.Record) error {
	if records == nil {
		records = []books.Record{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

// ReadYAML reads a YAML sequence of records.
func ReadYAML(path string) ([]books.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []books.Record
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}
