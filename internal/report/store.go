package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// Store writes rendered reports under a directory and prunes expired
// ones. Filenames are <cluster>_<timestamp>.md; pruning only ever
// touches .md files so anything else in the directory survives.
type Store struct {
	Dir    string
	MaxAge time.Duration // .md files older than this are removed on save
	Prune  bool
	now    func() time.Time
}

func (s *Store) timeNow() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Save writes content as a timestamped markdown report and returns the
// path. Pruning failures are logged, never returned: an unwritable old
// file must not fail the cycle that produced a fresh report.
func (s *Store) Save(cluster, content string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.md", cluster, s.timeNow().Format("20060102_150405"))
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	if s.Prune && s.MaxAge > 0 {
		if err := s.pruneExpired(); err != nil {
			fmt.Fprintf(os.Stderr, "[clusterpulse] warning: prune reports: %v\n", err)
		}
	}
	return path, nil
}

func (s *Store) pruneExpired() error {
	cutoff := s.timeNow().Add(-s.MaxAge)
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil {
				fmt.Fprintf(os.Stderr, "[clusterpulse] warning: remove %s: %v\n", entry.Name(), err)
			}
		}
	}
	return nil
}

// Latest returns the newest saved report paths for a cluster, most
// recent first, at most n. The timestamp format sorts lexically, so
// filename order is chronological order.
func (s *Store) Latest(cluster string, n int) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	prefix := cluster + "_"
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".md") {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	if n > 0 && len(names) > n {
		names = names[:n]
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(s.Dir, name)
	}
	return paths, nil
}

// DiffLatest renders a unified diff between the two newest reports for
// a cluster. With fewer than two reports on disk there is nothing to
// compare and an error says so.
func (s *Store) DiffLatest(cluster string) (string, error) {
	paths, err := s.Latest(cluster, 2)
	if err != nil {
		return "", err
	}
	if len(paths) < 2 {
		return "", fmt.Errorf("need two saved reports for %s, have %d", cluster, len(paths))
	}

	// paths[1] is the older of the two
	older, err := os.ReadFile(paths[1])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", paths[1], err)
	}
	newer, err := os.ReadFile(paths[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", paths[0], err)
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(older)),
		B:        difflib.SplitLines(string(newer)),
		FromFile: filepath.Base(paths[1]),
		ToFile:   filepath.Base(paths[0]),
		Context:  3,
	})
}
