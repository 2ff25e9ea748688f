package recovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// indexFile is the name of the index file under the recovery root.
const indexFile = "index.json"

// loadIndex reads the index from disk. A missing index is treated as
// empty so a fresh store lists cleanly.
func (m *Manager) loadIndex() (*Index, error) {
	path := filepath.Join(m.root, indexFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{}, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return &idx, nil
}

// persistIndex writes the index durably using a write-temp-then-rename
// sequence, so a crash mid-write never leaves a corrupt index visible.
func (m *Manager) persistIndex(idx *Index) error {
	path := filepath.Join(m.root, indexFile)
	return writeFileAtomic(path, idx)
}

// mutateIndex runs fn against the loaded index under the cross-process
// writer lock and persists the result. This is the single writer path
// for all index mutations: load, mutate, persist, with no background
// writes.
func (m *Manager) mutateIndex(fn func(*Index) error) error {
	if err := m.lock.Lock(); err != nil {
		return fmt.Errorf("locking index: %w", err)
	}
	defer func() {
		_ = m.lock.Unlock()
	}()

	idx, err := m.loadIndex()
	if err != nil {
		return err
	}
	if err := fn(idx); err != nil {
		return err
	}
	return m.persistIndex(idx)
}

// entry returns the index entry for id, or nil if absent.
func (idx *Index) entry(id string) *IndexEntry {
	for i := range idx.Recoveries {
		if idx.Recoveries[i].ID == id {
			return &idx.Recoveries[i]
		}
	}
	return nil
}

// remove deletes the entries with the given IDs from the index.
func (idx *Index) remove(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := idx.Recoveries[:0]
	for _, e := range idx.Recoveries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	idx.Recoveries = kept
}

// sortNewestFirst orders entries by timestamp descending.
func (idx *Index) sortNewestFirst() {
	sort.Slice(idx.Recoveries, func(i, j int) bool {
		return idx.Recoveries[i].Timestamp.After(idx.Recoveries[j].Timestamp)
	})
}

// writeFileAtomic marshals v as indented JSON and writes it via a temp
// file plus rename in the destination directory.
func writeFileAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
