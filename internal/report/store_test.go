package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	s := &Store{Dir: dir, now: func() time.Time {
		return time.Date(2026, 8, 26, 12, 30, 0, 0, time.UTC)
	}}

	path, err := s.Save("prod-eu", "# report body\n")
	require.NoError(t, err)

	assert.Equal(t, "prod-eu_20260826_123000.md", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# report body\n", string(data))
}

func TestSavePrunesOnlyExpiredMarkdown(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-5 * 24 * time.Hour)

	expired := filepath.Join(dir, "prod-eu_20260820_000000.md")
	require.NoError(t, os.WriteFile(expired, []byte("old"), 0644))
	require.NoError(t, os.Chtimes(expired, old, old))

	// A non-report file with the same age must survive
	keepsake := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keepsake, []byte("keep"), 0644))
	require.NoError(t, os.Chtimes(keepsake, old, old))

	s := &Store{Dir: dir, MaxAge: 72 * time.Hour, Prune: true}
	path, err := s.Save("prod-eu", "fresh")
	require.NoError(t, err)

	assert.NoFileExists(t, expired)
	assert.FileExists(t, keepsake)
	assert.FileExists(t, path)
}

func TestSavePruneDisabled(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-5 * 24 * time.Hour)

	expired := filepath.Join(dir, "prod-eu_20260820_000000.md")
	require.NoError(t, os.WriteFile(expired, []byte("old"), 0644))
	require.NoError(t, os.Chtimes(expired, old, old))

	s := &Store{Dir: dir, MaxAge: 72 * time.Hour, Prune: false}
	_, err := s.Save("prod-eu", "fresh")
	require.NoError(t, err)

	assert.FileExists(t, expired)
}

func TestLatestNewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"prod-eu_20260824_120000.md",
		"prod-eu_20260826_120000.md",
		"prod-eu_20260825_120000.md",
		"prod-us_20260826_120000.md",
		"scratch.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}

	s := &Store{Dir: dir}
	paths, err := s.Latest("prod-eu", 2)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "prod-eu_20260826_120000.md", filepath.Base(paths[0]))
	assert.Equal(t, "prod-eu_20260825_120000.md", filepath.Base(paths[1]))
}

func TestDiffLatest(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	s := &Store{Dir: dir, now: func() time.Time { return clock }}

	_, err := s.Save("prod-eu", "**Overall State:** HEALTHY\n")
	require.NoError(t, err)

	clock = clock.Add(5 * time.Minute)
	_, err = s.Save("prod-eu", "**Overall State:** CRITICAL\n")
	require.NoError(t, err)

	diff, err := s.DiffLatest("prod-eu")
	require.NoError(t, err)

	assert.Contains(t, diff, "--- prod-eu_20260826_120000.md")
	assert.Contains(t, diff, "+++ prod-eu_20260826_120500.md")
	assert.Contains(t, diff, "-**Overall State:** HEALTHY")
	assert.Contains(t, diff, "+**Overall State:** CRITICAL")
}

func TestDiffLatestNeedsTwoReports(t *testing.T) {
	dir := t.TempDir()
	s := &Store{Dir: dir}

	_, err := s.Save("prod-eu", "only one\n")
	require.NoError(t, err)

	_, err = s.DiffLatest("prod-eu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "have 1")
}
