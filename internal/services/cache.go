package services

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
)

const cacheVersion = "v2"

type cacheEntry struct {
	Version       string
	SourceModTime time.Time
	SourceSize    int64
	Rows          []models.Transaction
	Stats         ingest.Stats
}

func (d *Dashboard) cacheFilename(path string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(path)
	return filepath.Join(d.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (d *Dashboard) saveToCache(path string, rows []models.Transaction, stats ingest.Stats) error {
	if d.cacheDir == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.cacheDir, 0o755); err != nil {
		return err
	}

	filename := d.cacheFilename(path)
	tmp := filename + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	entry := cacheEntry{
		Version:       cacheVersion,
		SourceModTime: info.ModTime(),
		SourceSize:    info.Size(),
		Rows:          rows,
		Stats:         stats,
	}
	if err := gob.NewEncoder(file).Encode(entry); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filename)
}

// loadFromCache fails unless a cache entry exists for the current version
// of the source file.
func (d *Dashboard) loadFromCache(path string) (*cacheEntry, error) {
	if d.cacheDir == "" {
		return nil, fmt.Errorf("cache disabled")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(d.cacheFilename(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, err
	}
	if entry.Version != cacheVersion || !entry.SourceModTime.Equal(info.ModTime()) || entry.SourceSize != info.Size() {
		return nil, fmt.Errorf("cache stale for %s", path)
	}
	return &entry, nil
}
