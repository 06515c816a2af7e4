// Package cache keeps fetched list pages and model responses on disk so
// repeated runs avoid the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoDir is returned when a cache is used without a directory.
var ErrNoDir = errors.New("cache dir not configured")

func dirMode(strict bool) os.FileMode {
	if strict {
		return 0o700
	}
	return 0o755
}

func fileMode(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}

// ensureDir creates dir; with strict set an existing directory is tightened to 0700.
func ensureDir(dir string, strict bool) error {
	if strings.TrimSpace(dir) == "" {
		return ErrNoDir
	}
	if err := os.MkdirAll(dir, dirMode(strict)); err != nil {
		return err
	}
	if strict {
		if info, err := os.Stat(dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return nil
}

// writeAtomic writes data to a temp file next to path and renames it into place.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, mode); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
