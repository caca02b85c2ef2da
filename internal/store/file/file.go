// Package file persists the record list as a single JSON document on disk.
// It is the default backend: no external services, and the whole store is
// one human-readable file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mbrennan/marginalia/internal/record"
)

// document is the on-disk shape: the ordered record list under one fixed
// top-level key.
type document struct {
	Records []record.Record `json:"records"`
}

// Backend reads and writes the JSON document. Saves replace the file
// atomically via a temp file and rename, so a crash mid-write never leaves
// a torn store behind.
type Backend struct {
	path string
}

// New returns a record store backed by the JSON file at path. A missing
// file reads as an empty list; the parent directory is created on first
// save.
func New(path string) *record.ListStore {
	return record.NewListStore(&Backend{path: path})
}

func (b *Backend) Load(ctx context.Context) ([]record.Record, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return doc.Records, nil
}

func (b *Backend) Save(ctx context.Context, recs []record.Record) error {
	data, err := json.MarshalIndent(document{Records: recs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}
