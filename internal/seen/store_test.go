// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seen

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "seen_papers.json"), nil)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_papers.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var log bytes.Buffer
	s := NewStore(path, &log)

	got, err := s.Load()
	require.NoError(t, err, "corrupt file must not fail the run")
	assert.Empty(t, got)
	assert.Contains(t, log.String(), "corrupted")
}

func TestSaveCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "seen_papers.json")
	s := NewStore(path, nil)

	require.NoError(t, s.Save(set("2301.07041")))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, set("2301.07041"), got)
}

func TestSaveMergesWithExisting(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "seen_papers.json"), nil)

	require.NoError(t, s.Save(set("a", "b")))
	require.NoError(t, s.Save(set("b", "c")))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, set("a", "b", "c"), got)
}

func TestSaveIsIdempotent(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "seen_papers.json"), nil)

	require.NoError(t, s.Save(set("a", "b")))
	first, err := os.ReadFile(s.Path)
	require.NoError(t, err)

	require.NoError(t, s.Save(set("a", "b")))
	second, err := os.ReadFile(s.Path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "saving the same set twice must not change the file")
}

func TestSaveIsMonotone(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "seen_papers.json"), nil)

	saves := []map[string]struct{}{
		set("a", "b", "c"),
		set("d"),
		set(),
		set("a"),
	}

	prev := 0
	for _, ids := range saves {
		require.NoError(t, s.Save(ids))
		got, err := s.Load()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(got), prev, "persisted set must never shrink")
		prev = len(got)
	}
}

func TestSaveWritesSortedJSONArray(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "seen_papers.json"), nil)
	require.NoError(t, s.Save(set("2402.0001", "2301.07041", "2312.1111")))

	data, err := os.ReadFile(s.Path)
	require.NoError(t, err)

	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	assert.Equal(t, []string{"2301.07041", "2312.1111", "2402.0001"}, ids)
}

func TestSaveRecoversCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_papers.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	var log bytes.Buffer
	s := NewStore(path, &log)
	require.NoError(t, s.Save(set("x")))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, set("x"), got)
}

func TestSaveFailsWhenPathIsDirectory(t *testing.T) {
	dir := t.TempDir()
	// Rename onto an existing directory fails; the error must propagate.
	s := NewStore(dir, nil)
	err := s.Save(set("a"))
	assert.Error(t, err)
}
