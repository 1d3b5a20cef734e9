package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/mvreilly/daydeck/internal/task"
)

// Cache mirrors day documents to local JSON files so a fetch can fall back
// to the last known copy when the remote store is unreachable. Writes are
// atomic: a torn write never leaves a half-serialized document behind.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(date string) string {
	return filepath.Join(c.dir, date+".json")
}

// Save writes the document to <dir>/<date>.json.
func (c *Cache) Save(doc task.DayDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding day document %s: %w", doc.Date, err)
	}
	if err := atomic.WriteFile(c.path(doc.Date), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing cache file for %s: %w", doc.Date, err)
	}
	return nil
}

// Load reads the cached document for a date. The second return value is
// false when no cached copy exists.
func (c *Cache) Load(date string) (task.DayDocument, bool, error) {
	data, err := os.ReadFile(c.path(date))
	if os.IsNotExist(err) {
		return task.DayDocument{}, false, nil
	}
	if err != nil {
		return task.DayDocument{}, false, fmt.Errorf("reading cache file for %s: %w", date, err)
	}
	var doc task.DayDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return task.DayDocument{}, false, fmt.Errorf("decoding cache file for %s: %w", date, err)
	}
	return doc, true, nil
}
