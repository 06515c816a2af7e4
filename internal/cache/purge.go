package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClearDir removes dir and everything in it, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// Purged counts entries removed by PurgeByAge.
type Purged struct {
	Pages     int
	Responses int
}

// PurgeByAge walks dir and removes page entries whose SavedAt is older than
// maxAge, and model responses whose mtime is older than maxAge. A missing dir
// or a non-positive maxAge purges nothing.
func PurgeByAge(dir string, maxAge time.Duration) (Purged, error) {
	var p Purged
	if maxAge <= 0 || strings.TrimSpace(dir) == "" {
		return p, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	now := time.Now().UTC()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, ".meta.json"):
			b, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			var e PageEntry
			if json.Unmarshal(b, &e) != nil || now.Sub(e.SavedAt) <= maxAge {
				return nil
			}
			p.Pages++
			_ = os.Remove(path)
			_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		case strings.HasSuffix(name, ".json"):
			info, err := d.Info()
			if err != nil || now.Sub(info.ModTime().UTC()) <= maxAge {
				return nil
			}
			p.Responses++
			_ = os.Remove(path)
		}
		return nil
	})
	return p, err
}
