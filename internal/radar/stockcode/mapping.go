// Package stockcode resolves company names to stock ticker codes through a
// file-backed cache with a best-effort external lookup on miss.
package stockcode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Mapping is the persisted company name -> ticker code cache. It is loaded
// once at startup and flushed on every write; entries are only ever added.
type Mapping struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// LoadMapping reads the mapping file at path. A missing file yields an
// empty mapping, not an error.
func LoadMapping(path string) (*Mapping, error) {
	m := &Mapping{path: path, entries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stock mapping %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &m.entries); err != nil {
		return nil, fmt.Errorf("parse stock mapping %s: %w", path, err)
	}
	return m, nil
}

// Get returns the cached code for a company name.
func (m *Mapping) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.entries[name]
	return code, ok
}

// Put records a resolved code and flushes the file.
func (m *Mapping) Put(name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = code
	return m.save()
}

// Len returns the number of cached entries.
func (m *Mapping) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// save writes the whole mapping file. Callers must hold m.mu.
func (m *Mapping) save() error {
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create mapping dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write stock mapping %s: %w", m.path, err)
	}
	return nil
}
