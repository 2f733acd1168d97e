package services

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const cacheVersion = "v1"

func cacheFilename(dir, sourcePath string) string {
	name := fmt.Sprintf("%s_%s.gob", strings.ReplaceAll(sourcePath, string(os.PathSeparator), "_"), cacheVersion)
	return filepath.Join(dir, name)
}

// cacheFresh reports whether the cached snapshot postdates the source
// file it was computed from.
func cacheFresh(sourcePath string, snap *Snapshot) bool {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}
	return info.ModTime().Before(snap.CreatedAt)
}

func (a *Analytics) saveToCache(sourcePath string) error {
	if a.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(cacheFilename(a.cacheDir, sourcePath))
	if err != nil {
		return err
	}
	defer file.Close()

	a.mu.RLock()
	defer a.mu.RUnlock()

	return gob.NewEncoder(file).Encode(a.snapshot)
}

func (a *Analytics) loadFromCache(sourcePath string) (*Snapshot, error) {
	if a.cacheDir == "" {
		return nil, fmt.Errorf("cache disabled")
	}

	file, err := os.Open(cacheFilename(a.cacheDir, sourcePath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap Snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
