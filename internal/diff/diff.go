// Package diff classifies what changed between two consecutive
// observations of one cluster.
package diff

import (
	"fmt"
	"sort"

	"github.com/ppiankov/clusterpulse/internal/collect"
	"github.com/ppiankov/clusterpulse/internal/health"
)

// Observation pairs a sample with its assessment: one cluster at one
// point in time.
type Observation struct {
	Sample *collect.ClusterSample `json:"sample"`
	Health health.Assessment      `json:"health"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (o *Observation) Clone() *Observation {
	if o == nil {
		return nil
	}
	out := &Observation{
		Sample: o.Sample.Clone(),
		Health: health.Assessment{Verdict: o.Health.Verdict},
	}
	if o.Health.Issues != nil {
		out.Health.Issues = append([]string(nil), o.Health.Issues...)
	}
	return out
}

// Bands holds the hysteresis thresholds for resource crossings. A
// problem fires when usage climbs above Critical and resolves only
// once usage falls to Recovery or below; values oscillating between
// the two lines produce nothing, which is what stops alert flapping.
type Bands struct {
	CPUCritical    float64
	CPURecovery    float64
	MemoryCritical float64
	MemoryRecovery float64
	DiskCritical   float64
	DiskRecovery   float64
}

// DefaultBands mirrors the standard fleet configuration.
func DefaultBands() Bands {
	return Bands{
		CPUCritical:    85,
		CPURecovery:    70,
		MemoryCritical: 90,
		MemoryRecovery: 80,
		DiskCritical:   85,
		DiskRecovery:   75,
	}
}

// ChangeSet is the classified difference between two observations.
// Lists keep encounter order and are never deduplicated — a verdict
// transition and the operator change that caused it both appear, and
// a resource crossing shows up both as a problem and in the resource
// category.
type ChangeSet struct {
	NewProblems      []string `json:"new_problems,omitempty"`
	ResolvedProblems []string `json:"resolved_problems,omitempty"`
	StatusChanges    []string `json:"status_changes,omitempty"`
	ResourceChanges  []string `json:"resource_changes,omitempty"`
}

// Empty reports whether nothing changed.
func (c ChangeSet) Empty() bool {
	return len(c.NewProblems) == 0 && len(c.ResolvedProblems) == 0 &&
		len(c.StatusChanges) == 0 && len(c.ResourceChanges) == 0
}

// Total counts entries across all four categories.
func (c ChangeSet) Total() int {
	return len(c.NewProblems) + len(c.ResolvedProblems) + len(c.StatusChanges) + len(c.ResourceChanges)
}

// Diff compares the previous and current observation of one cluster.
// A nil previous means the first run: the result is a single
// new-problem entry and nothing else.
func Diff(previous, current *Observation, bands Bands) ChangeSet {
	if current == nil || current.Sample == nil {
		return ChangeSet{}
	}
	if previous == nil || previous.Sample == nil {
		return ChangeSet{NewProblems: []string{"First monitoring run"}}
	}

	var cs ChangeSet
	diffOperators(&cs, previous.Sample, current.Sample)
	diffNodes(&cs, previous.Sample, current.Sample)
	diffVerdict(&cs, previous.Health.Verdict, current.Health.Verdict)
	diffCriticalPods(&cs, previous.Sample, current.Sample)
	diffResources(&cs, previous.Sample, current.Sample, bands)
	return cs
}

func diffOperators(cs *ChangeSet, prev, curr *collect.ClusterSample) {
	for _, name := range sortedKeys(curr.Operators) {
		status := curr.Operators[name]
		old, seen := prev.Operators[name]
		if !seen {
			cs.NewProblems = append(cs.NewProblems, fmt.Sprintf("New operator: %s (%s)", name, status))
			continue
		}
		if old == status {
			continue
		}
		if health.OperatorStatusOK(status) {
			cs.ResolvedProblems = append(cs.ResolvedProblems, fmt.Sprintf("Operator %s recovered: %s", name, status))
		} else {
			cs.NewProblems = append(cs.NewProblems, fmt.Sprintf("Operator %s degraded: %s", name, status))
		}
		cs.StatusChanges = append(cs.StatusChanges, fmt.Sprintf("Operator %s: %s → %s", name, old, status))
	}
}

func diffNodes(cs *ChangeSet, prev, curr *collect.ClusterSample) {
	for _, name := range sortedKeys(curr.NodesReady) {
		ready := curr.NodesReady[name]
		old, seen := prev.NodesReady[name]
		if !seen {
			cs.NewProblems = append(cs.NewProblems, fmt.Sprintf("New node: %s", name))
			continue
		}
		if old == ready {
			continue
		}
		if ready {
			cs.ResolvedProblems = append(cs.ResolvedProblems, fmt.Sprintf("Node %s recovered", name))
			cs.StatusChanges = append(cs.StatusChanges, fmt.Sprintf("Node %s: up", name))
		} else {
			cs.NewProblems = append(cs.NewProblems, fmt.Sprintf("Node %s down", name))
			cs.StatusChanges = append(cs.StatusChanges, fmt.Sprintf("Node %s: down", name))
		}
	}
}

// diffVerdict flags any change landing on a bad verdict as a problem.
// Only a bad-to-HEALTHY change counts as recovery, so WARNING noise
// never reads as a fix.
func diffVerdict(cs *ChangeSet, old, curr health.Verdict) {
	if old == curr {
		return
	}
	if curr.Bad() {
		cs.NewProblems = append(cs.NewProblems, fmt.Sprintf("Cluster health degraded: %s", curr))
	} else if old.Bad() && curr == health.VerdictHealthy {
		cs.ResolvedProblems = append(cs.ResolvedProblems, fmt.Sprintf("Cluster recovered: %s", curr))
	}
	cs.StatusChanges = append(cs.StatusChanges, fmt.Sprintf("Cluster health: %s → %s", old, curr))
}

// diffCriticalPods is a pure set comparison on "pod (namespace)" keys;
// no per-pod transition log is kept.
func diffCriticalPods(cs *ChangeSet, prev, curr *collect.ClusterSample) {
	prevKeys := prev.CriticalPods()
	currKeys := curr.CriticalPods()

	prevSet := make(map[string]struct{}, len(prevKeys))
	for _, key := range prevKeys {
		prevSet[key] = struct{}{}
	}
	currSet := make(map[string]struct{}, len(currKeys))
	for _, key := range currKeys {
		currSet[key] = struct{}{}
	}

	for _, key := range currKeys {
		if _, ok := prevSet[key]; !ok {
			cs.NewProblems = append(cs.NewProblems, fmt.Sprintf("Problem pod: %s", key))
		}
	}
	for _, key := range prevKeys {
		if _, ok := currSet[key]; !ok {
			cs.ResolvedProblems = append(cs.ResolvedProblems, fmt.Sprintf("Pod recovered: %s", key))
		}
	}
}

// diffResources applies the hysteresis bands per node, independently
// for CPU, memory and disk. Only nodes present in both samples are
// compared; an omitted dimension reads as zero.
func diffResources(cs *ChangeSet, prev, curr *collect.ClusterSample, bands Bands) {
	for _, name := range sortedKeys(curr.NodeMetrics) {
		currM := curr.NodeMetrics[name]
		prevM, seen := prev.NodeMetrics[name]
		if !seen {
			continue
		}

		crossing(cs, name, "CPU", prevM.CPUValue(), currM.CPUValue(), bands.CPUCritical, bands.CPURecovery)
		crossing(cs, name, "memory", prevM.MemoryValue(), currM.MemoryValue(), bands.MemoryCritical, bands.MemoryRecovery)
		crossing(cs, name, "disk", prevM.DiskValue(), currM.DiskValue(), bands.DiskCritical, bands.DiskRecovery)
	}
}

func crossing(cs *ChangeSet, node, resource string, prev, curr, critical, recovery float64) {
	switch {
	case curr > critical && prev <= critical:
		line := fmt.Sprintf("Node %s: %s critical (%.1f%%)", node, resource, curr)
		cs.NewProblems = append(cs.NewProblems, line)
		cs.ResourceChanges = append(cs.ResourceChanges, line)
	case curr <= recovery && prev > recovery:
		line := fmt.Sprintf("Node %s: %s normalized (%.1f%%)", node, resource, curr)
		cs.ResolvedProblems = append(cs.ResolvedProblems, line)
		cs.ResourceChanges = append(cs.ResourceChanges, line)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
