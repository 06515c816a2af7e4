package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// LLMCache stores raw model responses keyed by KeyFrom(model, prompt).
type LLMCache struct {
	Dir string
	// StrictPerms restricts the directory to 0700 and files to 0600.
	StrictPerms bool
}

// KeyFrom builds a cache key from the model name and the full prompt.
func KeyFrom(model string, prompt string) string {
	return digest(model + "\n\n" + prompt)
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached bytes for key. A miss is (nil, false, nil).
func (c *LLMCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// refresh mtime so age-based purges keep entries that are still in use
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes data for key.
func (c *LLMCache) Save(_ context.Context, key string, data []byte) error {
	if c == nil {
		return ErrNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	return writeAtomic(c.pathFor(key), data, fileMode(c.StrictPerms))
}
