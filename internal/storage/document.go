package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mindcare/internal/config"
)

// DocumentFile stores every snapshot inside one JSON document on disk,
// mirroring the single data.json file of a small practice deployment. Writes
// rewrite the whole document atomically (temp file + rename).
type DocumentFile struct {
	mu   sync.Mutex
	path string
	doc  map[string]json.RawMessage
}

// OpenDocumentFile loads (or initializes) the JSON document under data_dir.
func OpenDocumentFile(cfg *config.Config) (*DocumentFile, error) {
	path := filepath.Join(cfg.Paths.DataDir, "data.json")
	return OpenDocumentFileAt(path)
}

// OpenDocumentFileAt loads the document at an explicit path.
func OpenDocumentFileAt(path string) (*DocumentFile, error) {
	store := &DocumentFile{path: path, doc: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read document store: %w", err)
	}
	if len(raw) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(raw, &store.doc); err != nil {
		return nil, fmt.Errorf("parse document store %q: %w", path, err)
	}
	if store.doc == nil {
		store.doc = make(map[string]json.RawMessage)
	}
	return store, nil
}

// Path returns the backing file path.
func (d *DocumentFile) Path() string { return d.path }

// Get returns the snapshot stored under key.
func (d *DocumentFile) Get(key string) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, ok := d.doc[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, true, nil
}

// Set replaces the snapshot under key and rewrites the document.
func (d *DocumentFile) Set(key string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("snapshot for %q is not valid JSON", key)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	cp := make(json.RawMessage, len(data))
	copy(cp, data)
	d.doc[key] = cp
	return d.flushLocked()
}

// SetAll replaces several snapshots with a single document rewrite. Every
// entry is validated before any of them is applied.
func (d *DocumentFile) SetAll(entries map[string][]byte) error {
	for key, data := range entries {
		if !json.Valid(data) {
			return fmt.Errorf("snapshot for %q is not valid JSON", key)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, data := range entries {
		cp := make(json.RawMessage, len(data))
		copy(cp, data)
		d.doc[key] = cp
	}
	return d.flushLocked()
}

// Keys lists stored snapshot keys in sorted order.
func (d *DocumentFile) Keys() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.doc))
	for key := range d.doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the document file.
func (d *DocumentFile) Close() error { return nil }

// Document returns the whole backing document, for the /api/data endpoint.
func (d *DocumentFile) Document() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return json.Marshal(d.doc)
}

// ReplaceDocument swaps the entire document, for the /api/data endpoint.
func (d *DocumentFile) ReplaceDocument(raw []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if doc == nil {
		doc = make(map[string]json.RawMessage)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc = doc
	return d.flushLocked()
}

func (d *DocumentFile) flushLocked() error {
	// Compact, not indented: snapshots must read back byte-identical after a
	// reopen, and MarshalIndent would reflow the stored raw messages.
	payload, err := json.Marshal(d.doc)
	if err != nil {
		return fmt.Errorf("marshal document store: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure document dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".data-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpPath, d.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
