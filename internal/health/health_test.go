package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clusterpulse/internal/collect"
)

func reachable() *collect.ClusterSample {
	return &collect.ClusterSample{
		Cluster:    "prod-eu",
		Reachable:  true,
		Operators:  map[string]string{},
		NodesReady: map[string]bool{},
		Namespaces: map[string]collect.NamespaceSample{},
	}
}

func TestOperatorStatusOK(t *testing.T) {
	for _, status := range []string{"AsExpected", "OK", "RollOutDone"} {
		assert.True(t, OperatorStatusOK(status), status)
	}
	for _, status := range []string{"Degraded", "NodeInstallerDegraded", "", "ok", "asexpected"} {
		assert.False(t, OperatorStatusOK(status), status)
	}
}

func TestAssessEmptyClusterHealthy(t *testing.T) {
	a := Assess(reachable(), DefaultThresholds())
	assert.Equal(t, VerdictHealthy, a.Verdict)
	assert.Empty(t, a.Issues)
}

func TestAssessDegradedOperators(t *testing.T) {
	s := reachable()
	s.Operators = map[string]string{
		"etcd":    "AsExpected",
		"network": "ConnectivityIssues",
		"ingress": "RollOutDone",
		"dns":     "Degraded",
	}

	a := Assess(s, DefaultThresholds())
	assert.Equal(t, VerdictCritical, a.Verdict)
	assert.Equal(t, []string{
		"Operator dns in state: Degraded",
		"Operator network in state: ConnectivityIssues",
	}, a.Issues)
}

func TestAssessDownNodesBatched(t *testing.T) {
	s := reachable()
	s.NodesReady = map[string]bool{
		"worker-1": true,
		"worker-2": false,
		"worker-3": false,
	}

	a := Assess(s, DefaultThresholds())
	assert.Equal(t, VerdictCritical, a.Verdict)
	require.Len(t, a.Issues, 1)
	assert.Equal(t, "Nodes down: worker-2, worker-3", a.Issues[0])
}

func TestAssessResourceThresholds(t *testing.T) {
	s := reachable()
	s.NodeMetrics = map[string]collect.NodeMetrics{
		// memory 15% used → 85% available, below the 90% floor
		"worker-1": {Memory: collect.Percent(15)},
		// CPU above the 85% ceiling
		"worker-2": {CPU: collect.Percent(90)},
		// disk 90% used → 10% available, below the 15% floor
		"worker-3": {Disk: collect.Percent(90)},
		// everything comfortably inside the bands
		"worker-4": {CPU: collect.Percent(50), Memory: collect.Percent(5), Disk: collect.Percent(20)},
		// omitted dimensions are never flagged
		"worker-5": {},
	}

	a := Assess(s, DefaultThresholds())
	assert.Equal(t, VerdictCritical, a.Verdict)
	assert.Equal(t, []string{
		"Node worker-1: memory critical (85.0% available)",
		"Node worker-2: CPU critical (90.0% in use)",
		"Node worker-3: disk critical (10.0% available)",
	}, a.Issues)
}

func TestAssessCriticalPods(t *testing.T) {
	s := reachable()
	s.Namespaces = map[string]collect.NamespaceSample{
		"prod": {
			Name:         "prod",
			PodCount:     5,
			RunningPods:  3,
			FailedPods:   1,
			PendingPods:  1,
			CriticalPods: []string{"crawler-1", "ingest-0"},
		},
	}

	a := Assess(s, DefaultThresholds())
	assert.Equal(t, VerdictCritical, a.Verdict)
	assert.Equal(t, []string{
		"Pod crawler-1 in namespace prod has problems",
		"Pod ingest-0 in namespace prod has problems",
	}, a.Issues)

	ns := s.Namespaces["prod"]
	assert.LessOrEqual(t, ns.RunningPods+ns.FailedPods+ns.PendingPods, ns.PodCount)
}

func TestAssessIssueOrder(t *testing.T) {
	s := reachable()
	s.Operators = map[string]string{"network": "Degraded"}
	s.NodesReady = map[string]bool{"worker-1": false}
	s.NodeMetrics = map[string]collect.NodeMetrics{
		"worker-1": {CPU: collect.Percent(95), Memory: collect.Percent(20)},
	}
	s.Namespaces = map[string]collect.NamespaceSample{
		"prod": {Name: "prod", CriticalPods: []string{"api-0"}},
	}

	a := Assess(s, DefaultThresholds())
	assert.Equal(t, []string{
		"Operator network in state: Degraded",
		"Nodes down: worker-1",
		"Node worker-1: memory critical (80.0% available)",
		"Node worker-1: CPU critical (95.0% in use)",
		"Pod api-0 in namespace prod has problems",
	}, a.Issues)
}

func TestAssessUnreachable(t *testing.T) {
	s := &collect.ClusterSample{
		Cluster: "prod-eu",
		Errors:  []string{"monitoring error: connection refused"},
	}

	a := Assess(s, DefaultThresholds())
	assert.Equal(t, VerdictError, a.Verdict)
	assert.Equal(t, []string{"monitoring error: connection refused"}, a.Issues)
}

func TestAssessReachableButBlind(t *testing.T) {
	s := &collect.ClusterSample{
		Cluster:   "prod-eu",
		Reachable: true,
		Errors:    []string{"operators: boom", "nodes: boom", "namespaces: boom"},
	}

	a := Assess(s, DefaultThresholds())
	assert.Equal(t, VerdictWarning, a.Verdict)
	assert.Empty(t, a.Issues)
}

func TestAssessDeterministic(t *testing.T) {
	s := reachable()
	s.Operators = map[string]string{"a": "Degraded", "b": "Degraded", "c": "Degraded", "d": "Degraded"}
	s.NodesReady = map[string]bool{"n1": false, "n2": false, "n3": false}

	first := Assess(s, DefaultThresholds())
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Assess(s, DefaultThresholds()))
	}
}

func TestVerdictBad(t *testing.T) {
	assert.True(t, VerdictCritical.Bad())
	assert.True(t, VerdictError.Bad())
	assert.False(t, VerdictHealthy.Bad())
	assert.False(t, VerdictWarning.Bad())
}
