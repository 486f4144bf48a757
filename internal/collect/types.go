// Package collect samples the health-relevant state of a remote
// cluster through its API transport. Each sub-query is independent —
// if one fails, the error is recorded on the sample and collection
// continues with the remaining queries.
package collect

import (
	"fmt"
	"sort"
	"time"
)

// NodeMetrics holds per-node resource commitment as percentages in
// [0,100]. A nil dimension means capacity or allocatable was missing
// for that resource, which is different from a measured zero.
type NodeMetrics struct {
	CPU    *float64 `json:"cpu,omitempty"`
	Memory *float64 `json:"memory,omitempty"`
	Disk   *float64 `json:"disk,omitempty"`
}

// CPUValue returns the CPU dimension, or 0 when it was not collected.
func (m NodeMetrics) CPUValue() float64 {
	if m.CPU == nil {
		return 0
	}
	return *m.CPU
}

// MemoryValue returns the memory dimension, or 0 when it was not collected.
func (m NodeMetrics) MemoryValue() float64 {
	if m.Memory == nil {
		return 0
	}
	return *m.Memory
}

// DiskValue returns the disk dimension, or 0 when it was not collected.
func (m NodeMetrics) DiskValue() float64 {
	if m.Disk == nil {
		return 0
	}
	return *m.Disk
}

// Clone returns a copy with its own pointer cells.
func (m NodeMetrics) Clone() NodeMetrics {
	var out NodeMetrics
	if m.CPU != nil {
		v := *m.CPU
		out.CPU = &v
	}
	if m.Memory != nil {
		v := *m.Memory
		out.Memory = &v
	}
	if m.Disk != nil {
		v := *m.Disk
		out.Disk = &v
	}
	return out
}

// Percent wraps a literal percentage for the optional NodeMetrics fields.
func Percent(v float64) *float64 { return &v }

// NodeUsage is the live consumption facet from the metrics API:
// absolute cores and bytes in use right now. Kept apart from
// NodeMetrics so the capacity-derived percentages stay authoritative
// for assessment and change detection.
type NodeUsage struct {
	CPUCores    float64 `json:"cpu_cores"`
	MemoryBytes float64 `json:"memory_bytes"`
}

// NamespaceSample summarizes one namespace's workloads.
type NamespaceSample struct {
	Name             string   `json:"name"`
	Phase            string   `json:"phase"`
	PodCount         int      `json:"pod_count"`
	RunningPods      int      `json:"running_pods"`
	FailedPods       int      `json:"failed_pods"`
	PendingPods      int      `json:"pending_pods"`
	SucceededPods    int      `json:"succeeded_pods"`
	UnknownPods      int      `json:"unknown_pods"`
	ServiceCount     int      `json:"service_count"`
	DeploymentCount  int      `json:"deployment_count"`
	ReadyDeployments int      `json:"ready_deployments"`
	CriticalPods     []string `json:"critical_pods,omitempty"`
}

// Clone returns a copy with its own critical-pod slice.
func (n NamespaceSample) Clone() NamespaceSample {
	out := n
	if n.CriticalPods != nil {
		out.CriticalPods = append([]string(nil), n.CriticalPods...)
	}
	return out
}

// PodSummary aggregates pod phases across all namespaces.
type PodSummary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
	Succeeded int `json:"succeeded"`
	Unknown   int `json:"unknown"`
}

// ClusterSample is one full observation of a cluster. A facet map is
// nil when its sub-query failed and non-nil (possibly empty) when the
// query succeeded, so an unqueryable cluster can be told apart from an
// empty one.
type ClusterSample struct {
	Cluster     string                     `json:"cluster"`
	CollectedAt time.Time                  `json:"collected_at"`
	User        string                     `json:"user,omitempty"`
	Reachable   bool                       `json:"reachable"`
	Operators   map[string]string          `json:"operators,omitempty"`
	NodesReady  map[string]bool            `json:"nodes_ready,omitempty"`
	NodeMetrics map[string]NodeMetrics     `json:"node_metrics,omitempty"`
	NodeUsage   map[string]NodeUsage       `json:"node_usage,omitempty"`
	Namespaces  map[string]NamespaceSample `json:"namespaces,omitempty"`
	Pods        PodSummary                 `json:"pods"`
	Errors      []string                   `json:"errors,omitempty"`
}

// Empty reports whether no facet was collected at all.
func (s *ClusterSample) Empty() bool {
	return s.Operators == nil && s.NodesReady == nil && s.Namespaces == nil
}

// CriticalPods returns every critical pod as a "pod (namespace)" key,
// sorted for stable output.
func (s *ClusterSample) CriticalPods() []string {
	var keys []string
	for _, ns := range s.Namespaces {
		for _, pod := range ns.CriticalPods {
			keys = append(keys, fmt.Sprintf("%s (%s)", pod, ns.Name))
		}
	}
	sort.Strings(keys)
	return keys
}

// ReadyNodes counts nodes reporting Ready against the total.
func (s *ClusterSample) ReadyNodes() (ready, total int) {
	for _, ok := range s.NodesReady {
		if ok {
			ready++
		}
	}
	return ready, len(s.NodesReady)
}

// Clone returns a deep copy safe to publish to concurrent readers.
func (s *ClusterSample) Clone() *ClusterSample {
	if s == nil {
		return nil
	}
	out := *s

	if s.Operators != nil {
		out.Operators = make(map[string]string, len(s.Operators))
		for k, v := range s.Operators {
			out.Operators[k] = v
		}
	}
	if s.NodesReady != nil {
		out.NodesReady = make(map[string]bool, len(s.NodesReady))
		for k, v := range s.NodesReady {
			out.NodesReady[k] = v
		}
	}
	if s.NodeMetrics != nil {
		out.NodeMetrics = make(map[string]NodeMetrics, len(s.NodeMetrics))
		for k, v := range s.NodeMetrics {
			out.NodeMetrics[k] = v.Clone()
		}
	}
	if s.NodeUsage != nil {
		out.NodeUsage = make(map[string]NodeUsage, len(s.NodeUsage))
		for k, v := range s.NodeUsage {
			out.NodeUsage[k] = v
		}
	}
	if s.Namespaces != nil {
		out.Namespaces = make(map[string]NamespaceSample, len(s.Namespaces))
		for k, v := range s.Namespaces {
			out.Namespaces[k] = v.Clone()
		}
	}
	if s.Errors != nil {
		out.Errors = append([]string(nil), s.Errors...)
	}
	return &out
}
