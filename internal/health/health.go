// Package health turns a raw cluster sample into a verdict and the
// list of issues behind it. Assessment is pure: the same sample and
// thresholds always produce the same result.
package health

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/clusterpulse/internal/collect"
)

// Verdict classifies one cluster sample.
type Verdict string

const (
	VerdictHealthy  Verdict = "HEALTHY"
	VerdictWarning  Verdict = "WARNING"
	VerdictCritical Verdict = "CRITICAL"
	VerdictError    Verdict = "ERROR"
)

// Bad reports whether the verdict demands attention.
func (v Verdict) Bad() bool {
	return v == VerdictCritical || v == VerdictError
}

// Emoji is the terminal marker shown next to a verdict in tables and
// summaries.
func (v Verdict) Emoji() string {
	switch v {
	case VerdictHealthy:
		return "🟢"
	case VerdictWarning:
		return "🟡"
	case VerdictCritical:
		return "🔴"
	case VerdictError:
		return "❌"
	}
	return "❓"
}

// Operator statuses treated as healthy. Different operators report
// success under different reasons; these three cover what clusters
// emit in practice. All status interpretation goes through
// OperatorStatusOK — never match these strings elsewhere.
var acceptedOperatorStatuses = map[string]struct{}{
	"AsExpected":  {},
	"OK":          {},
	"RollOutDone": {},
}

// OperatorStatusOK reports whether an operator status string counts as healthy.
func OperatorStatusOK(status string) bool {
	_, ok := acceptedOperatorStatuses[status]
	return ok
}

// Thresholds carries the critical levels for assessment. Memory names
// the minimum percentage that must stay available; CPU and disk name
// the maximum percentage that may be in use.
type Thresholds struct {
	CPUCritical    float64
	MemoryCritical float64
	DiskCritical   float64
}

// DefaultThresholds mirrors the standard fleet configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{CPUCritical: 85, MemoryCritical: 90, DiskCritical: 85}
}

// Assessment is a verdict plus the ordered issues that produced it.
type Assessment struct {
	Verdict Verdict  `json:"verdict"`
	Issues  []string `json:"issues,omitempty"`
}

// Assess derives the health of one sample. Issues accumulate in a
// fixed order — operators, down nodes, memory, CPU, disk, critical
// pods — and never short-circuit. An unreachable sample is ERROR with
// the collector's single monitoring-error issue; a reachable sample
// where every sub-query failed is WARNING since nothing can be said
// about it either way.
func Assess(sample *collect.ClusterSample, th Thresholds) Assessment {
	if !sample.Reachable {
		return Assessment{
			Verdict: VerdictError,
			Issues:  append([]string(nil), sample.Errors...),
		}
	}

	var issues []string

	for _, name := range sortedKeys(sample.Operators) {
		if status := sample.Operators[name]; !OperatorStatusOK(status) {
			issues = append(issues, fmt.Sprintf("Operator %s in state: %s", name, status))
		}
	}

	var down []string
	for _, name := range sortedKeys(sample.NodesReady) {
		if !sample.NodesReady[name] {
			down = append(down, name)
		}
	}
	if len(down) > 0 {
		issues = append(issues, fmt.Sprintf("Nodes down: %s", strings.Join(down, ", ")))
	}

	nodeNames := sortedKeys(sample.NodeMetrics)
	for _, name := range nodeNames {
		if m := sample.NodeMetrics[name]; m.Memory != nil {
			if available := 100 - *m.Memory; available < th.MemoryCritical {
				issues = append(issues, fmt.Sprintf("Node %s: memory critical (%.1f%% available)", name, available))
			}
		}
	}
	for _, name := range nodeNames {
		if m := sample.NodeMetrics[name]; m.CPU != nil && *m.CPU > th.CPUCritical {
			issues = append(issues, fmt.Sprintf("Node %s: CPU critical (%.1f%% in use)", name, *m.CPU))
		}
	}
	for _, name := range nodeNames {
		if m := sample.NodeMetrics[name]; m.Disk != nil {
			if available := 100 - *m.Disk; available < 100-th.DiskCritical {
				issues = append(issues, fmt.Sprintf("Node %s: disk critical (%.1f%% available)", name, available))
			}
		}
	}

	for _, nsName := range sortedKeys(sample.Namespaces) {
		ns := sample.Namespaces[nsName]
		for _, pod := range ns.CriticalPods {
			issues = append(issues, fmt.Sprintf("Pod %s in namespace %s has problems", pod, nsName))
		}
	}

	switch {
	case len(issues) > 0:
		return Assessment{Verdict: VerdictCritical, Issues: issues}
	case sample.Empty() && len(sample.Errors) > 0:
		return Assessment{Verdict: VerdictWarning}
	default:
		return Assessment{Verdict: VerdictHealthy}
	}
}

// sortedKeys keeps issue order stable across runs; ranging over the
// maps directly would shuffle it.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
