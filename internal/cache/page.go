package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageEntry is the metadata kept next to a cached page body.
type PageEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	Size         int       `json:"size"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache stores fetched pages as <sha256(url)>.meta.json and
// <sha256(url)>.body under Dir.
type PageCache struct {
	Dir string
	// StrictPerms restricts the directory to 0700 and files to 0600.
	StrictPerms bool
}

func (c *PageCache) metaPath(url string) string {
	return filepath.Join(c.Dir, digest(url)+".meta.json")
}

func (c *PageCache) bodyPath(url string) string {
	return filepath.Join(c.Dir, digest(url)+".body")
}

// Meta returns the entry for url. A missing entry is reported through the
// returned error (os.ErrNotExist).
func (c *PageCache) Meta(_ context.Context, url string) (*PageEntry, error) {
	if c == nil {
		return nil, ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(url))
	if err != nil {
		return nil, err
	}
	var e PageEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode page meta: %w", err)
	}
	return &e, nil
}

// Body returns the cached page body for url.
func (c *PageCache) Body(_ context.Context, url string) ([]byte, error) {
	if c == nil {
		return nil, ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(url))
}

// Save stores body and its validators. The body is written before the meta
// file so a meta file always points at a complete body.
func (c *PageCache) Save(_ context.Context, url, contentType, etag, lastModified string, body []byte) error {
	if c == nil {
		return ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	mode := fileMode(c.StrictPerms)
	if err := writeAtomic(c.bodyPath(url), body, mode); err != nil {
		return fmt.Errorf("write page body: %w", err)
	}
	meta, err := json.Marshal(PageEntry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		Size:         len(body),
		SavedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode page meta: %w", err)
	}
	if err := writeAtomic(c.metaPath(url), meta, mode); err != nil {
		return fmt.Errorf("write page meta: %w", err)
	}
	return nil
}
