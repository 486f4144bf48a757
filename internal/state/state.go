// Package state holds the process-lifetime monitoring state: the
// latest observation per cluster plus the one immediately before it.
// Nothing is ever persisted — a restart starts from a clean slate and
// every cluster reports a first run again.
package state

import (
	"sort"
	"sync"

	"github.com/ppiankov/clusterpulse/internal/diff"
)

// Store guards current and previous observations per cluster. Writes
// come from the poll cycle; reads come from the interactive side and
// return deep copies, so a reader can never observe a torn update and
// never blocks the poller beyond the copy itself.
type Store struct {
	mu       sync.RWMutex
	current  map[string]*diff.Observation
	previous map[string]*diff.Observation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		current:  make(map[string]*diff.Observation),
		previous: make(map[string]*diff.Observation),
	}
}

// Commit publishes obs as the cluster's current observation, shifting
// the outgoing current into previous, and returns the ChangeSet
// computed against that outgoing observation. Shift, diff and publish
// happen in one critical section: no reader can see a new current
// whose changes have not been derived against the matching previous.
// The caller must not mutate obs after committing it.
func (s *Store) Commit(cluster string, obs *diff.Observation, bands diff.Bands) diff.ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	outgoing := s.current[cluster]
	changes := diff.Diff(outgoing, obs, bands)
	if outgoing != nil {
		s.previous[cluster] = outgoing
	}
	s.current[cluster] = obs
	return changes
}

// Cluster returns deep copies of one cluster's current and previous
// observations. Either is nil when not yet recorded.
func (s *Store) Cluster(name string) (current, previous *diff.Observation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current[name].Clone(), s.previous[name].Clone()
}

// Current returns a deep copy of every cluster's latest observation.
func (s *Store) Current() map[string]*diff.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*diff.Observation, len(s.current))
	for name, obs := range s.current {
		out[name] = obs.Clone()
	}
	return out
}

// Clusters returns the names with a committed observation, sorted.
func (s *Store) Clusters() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.current))
	for name := range s.current {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
