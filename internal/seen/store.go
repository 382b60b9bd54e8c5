// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seen persists the set of paper identifiers already processed, so
// a paper is surfaced in at most one digest across runs.
package seen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Store reads and writes the seen-set file: a JSON array of paper IDs.
// The set only ever grows; Save merges with whatever is already on disk
// so repeated calls within one run cannot lose identifiers.
type Store struct {
	// Path is the seen-set file location.
	Path string

	// Log receives warnings for non-fatal conditions. Defaults to io.Discard.
	Log io.Writer
}

// NewStore returns a Store writing warnings to w.
func NewStore(path string, w io.Writer) *Store {
	if w == nil {
		w = io.Discard
	}
	return &Store{Path: path, Log: w}
}

// Load reads the persisted identifiers. A missing file yields an empty set.
// A corrupt file is non-fatal: it logs a warning and yields an empty set
// rather than failing the run.
func (s *Store) Load() (map[string]struct{}, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("reading seen-set %s: %w", s.Path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		fmt.Fprintf(s.Log, "warning: seen-set %s is corrupted, starting fresh: %v\n", s.Path, err)
		return map[string]struct{}{}, nil
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Save unions newIDs with the persisted set and writes the result back.
// The write goes to a temp file in the same directory and is renamed into
// place, so a crash mid-write cannot corrupt the existing set. A write
// failure is returned to the caller; it must abort the run rather than
// leave state inconsistent.
func (s *Store) Save(newIDs map[string]struct{}) error {
	current, err := s.Load()
	if err != nil {
		return err
	}
	for id := range newIDs {
		current[id] = struct{}{}
	}

	ids := make([]string, 0, len(current))
	for id := range current {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling seen-set: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".seen-*.json")
	if err != nil {
		return fmt.Errorf("creating temp seen-set: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing seen-set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing seen-set: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing seen-set %s: %w", s.Path, err)
	}

	fmt.Fprintf(s.Log, "tracked %d total papers\n", len(ids))
	return nil
}
