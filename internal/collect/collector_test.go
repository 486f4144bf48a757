package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/parse"
)

func testCluster() config.Cluster {
	return config.Cluster{Name: "prod-eu", APIURL: "https://api.prod.example.com:6443", Token: "tok"}
}

// healthyTransport registers fixtures for every path the collector hits.
func healthyTransport() *cluster.MockTransport {
	m := cluster.NewMockTransport()

	m.Responses[PathClusterOperators] = map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"metadata": map[string]interface{}{"name": "etcd"},
				"status": map[string]interface{}{
					"conditions": []map[string]interface{}{
						{"type": "Degraded", "status": "False", "reason": "AsExpected"},
						{"type": "Available", "status": "True", "reason": "AsExpected"},
					},
				},
			},
			{
				"metadata": map[string]interface{}{"name": "network"},
				"status": map[string]interface{}{
					"conditions": []map[string]interface{}{
						{"type": "Degraded", "status": "True", "reason": "ConnectivityIssues"},
						{"type": "Available", "status": "True", "reason": "AsExpected"},
					},
				},
			},
		},
	}

	m.Responses[PathNodes] = map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"metadata": map[string]interface{}{"name": "worker-1"},
				"status": map[string]interface{}{
					"capacity": map[string]string{
						"cpu":               "4",
						"memory":            "100Mi",
						"ephemeral-storage": "100Gi",
					},
					"allocatable": map[string]string{
						"cpu":               "3",
						"memory":            "90Mi",
						"ephemeral-storage": "80Gi",
					},
					"conditions": []map[string]interface{}{
						{"type": "MemoryPressure", "status": "False"},
						{"type": "Ready", "status": "True"},
					},
				},
			},
			{
				"metadata": map[string]interface{}{"name": "worker-2"},
				"status": map[string]interface{}{
					"capacity":    map[string]string{"cpu": "4"},
					"allocatable": map[string]string{"cpu": "3"},
					"conditions": []map[string]interface{}{
						{"type": "Ready", "status": "False"},
					},
				},
			},
		},
	}

	m.Responses[PathNodeMetrics] = map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"metadata": map[string]interface{}{"name": "worker-1"},
				"usage":    map[string]string{"cpu": "250m", "memory": "1Gi"},
			},
		},
	}

	m.Responses[PathNamespaces] = map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"metadata": map[string]interface{}{"name": "prod"},
				"status":   map[string]interface{}{"phase": "Active"},
			},
		},
	}
	m.Responses[PathNamespacePods("prod")] = map[string]interface{}{
		"items": []map[string]interface{}{
			{"metadata": map[string]interface{}{"name": "api-0"}, "status": map[string]interface{}{"phase": "Running"}},
			{"metadata": map[string]interface{}{"name": "crawler-1"}, "status": map[string]interface{}{"phase": "Failed"}},
			{"metadata": map[string]interface{}{"name": "ingest-0"}, "status": map[string]interface{}{"phase": "Pending"}},
		},
	}
	m.Responses[PathNamespaceServices("prod")] = map[string]interface{}{
		"items": []map[string]interface{}{
			{"metadata": map[string]interface{}{"name": "api"}},
			{"metadata": map[string]interface{}{"name": "ingest"}},
		},
	}
	m.Responses[PathNamespaceDeployments("prod")] = map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"metadata": map[string]interface{}{"name": "api"},
				"spec":     map[string]interface{}{"replicas": 2},
				"status":   map[string]interface{}{"readyReplicas": 2},
			},
			{
				"metadata": map[string]interface{}{"name": "crawler"},
				"spec":     map[string]interface{}{"replicas": 3},
				"status":   map[string]interface{}{"readyReplicas": 1},
			},
		},
	}
	return m
}

func TestCollectHealthyCluster(t *testing.T) {
	m := healthyTransport()
	c := New(map[string]cluster.Transport{"prod-eu": m})

	sample, err := c.Collect(context.Background(), testCluster())
	require.NoError(t, err)
	require.NotNil(t, sample)

	assert.True(t, sample.Reachable)
	assert.Equal(t, "system:serviceaccount:monitoring:pulse", sample.User)
	assert.Empty(t, sample.Errors)
	assert.Equal(t, 1, m.ProbeCalls)

	assert.Equal(t, map[string]string{
		"etcd":    "AsExpected",
		"network": "ConnectivityIssues",
	}, sample.Operators)

	assert.Equal(t, map[string]bool{"worker-1": true, "worker-2": false}, sample.NodesReady)
	ready, total := sample.ReadyNodes()
	assert.Equal(t, 1, ready)
	assert.Equal(t, 2, total)

	w1 := sample.NodeMetrics["worker-1"]
	require.NotNil(t, w1.CPU)
	assert.InDelta(t, 25.0, *w1.CPU, 0.001)
	require.NotNil(t, w1.Memory)
	assert.InDelta(t, 10.0, *w1.Memory, 0.001)
	require.NotNil(t, w1.Disk)
	assert.InDelta(t, 20.0, *w1.Disk, 0.001)

	// worker-2 reports no memory figures at all
	w2 := sample.NodeMetrics["worker-2"]
	require.NotNil(t, w2.CPU)
	assert.Nil(t, w2.Memory)
	assert.Nil(t, w2.Disk)
	assert.Zero(t, w2.MemoryValue())

	usage := sample.NodeUsage["worker-1"]
	assert.InDelta(t, 0.25, usage.CPUCores, 0.001)
	assert.InDelta(t, float64(1<<30), usage.MemoryBytes, 1)

	ns := sample.Namespaces["prod"]
	assert.Equal(t, "Active", ns.Phase)
	assert.Equal(t, 3, ns.PodCount)
	assert.Equal(t, 1, ns.RunningPods)
	assert.Equal(t, 1, ns.FailedPods)
	assert.Equal(t, 1, ns.PendingPods)
	assert.Equal(t, []string{"crawler-1", "ingest-0"}, ns.CriticalPods)
	assert.Equal(t, 2, ns.ServiceCount)
	assert.Equal(t, 2, ns.DeploymentCount)
	assert.Equal(t, 1, ns.ReadyDeployments)
	assert.LessOrEqual(t, ns.RunningPods+ns.FailedPods+ns.PendingPods, ns.PodCount)

	assert.Equal(t, PodSummary{Total: 3, Running: 1, Failed: 1, Pending: 1}, sample.Pods)
	assert.Equal(t, []string{"crawler-1 (prod)", "ingest-0 (prod)"}, sample.CriticalPods())
}

func TestCollectProbeFailure(t *testing.T) {
	m := cluster.NewMockTransport()
	m.ProbeError = errors.New("connection refused")
	c := New(map[string]cluster.Transport{"prod-eu": m})

	sample, err := c.Collect(context.Background(), testCluster())
	require.NoError(t, err)

	assert.False(t, sample.Reachable)
	assert.True(t, sample.Empty())
	require.Len(t, sample.Errors, 1)
	assert.Equal(t, "monitoring error: connection refused", sample.Errors[0])
	// No detail queries after a failed probe
	assert.Empty(t, m.GetCalls)
}

func TestCollectUnknownCluster(t *testing.T) {
	c := New(map[string]cluster.Transport{})

	sample, err := c.Collect(context.Background(), testCluster())
	require.NoError(t, err)

	assert.False(t, sample.Reachable)
	require.Len(t, sample.Errors, 1)
	assert.Contains(t, sample.Errors[0], "monitoring error:")
}

func TestCollectPartialFailure(t *testing.T) {
	m := healthyTransport()
	m.Errors[PathClusterOperators] = errors.New("the server could not find the requested resource")
	c := New(map[string]cluster.Transport{"prod-eu": m})

	sample, err := c.Collect(context.Background(), testCluster())
	require.NoError(t, err)

	assert.True(t, sample.Reachable)
	assert.Nil(t, sample.Operators)
	require.Len(t, sample.Errors, 1)
	assert.Contains(t, sample.Errors[0], "operators:")

	// The other facets are untouched by the operator failure
	assert.NotNil(t, sample.NodesReady)
	assert.NotNil(t, sample.Namespaces)
	assert.False(t, sample.Empty())
}

func TestCollectAllQueriesFailed(t *testing.T) {
	m := cluster.NewMockTransport()
	boom := errors.New("proxy error")
	m.Errors[PathClusterOperators] = boom
	m.Errors[PathNodes] = boom
	m.Errors[PathNodeMetrics] = boom
	m.Errors[PathNamespaces] = boom
	c := New(map[string]cluster.Transport{"prod-eu": m})

	sample, err := c.Collect(context.Background(), testCluster())
	require.NoError(t, err)

	assert.True(t, sample.Reachable)
	assert.True(t, sample.Empty())
	assert.Len(t, sample.Errors, 4)
}

func TestCollectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := cluster.NewMockTransport()
	m.ProbeError = context.Canceled
	c := New(map[string]cluster.Transport{"prod-eu": m})

	sample, err := c.Collect(ctx, testCluster())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sample)
}

func TestOperatorStatus(t *testing.T) {
	tests := []struct {
		name  string
		conds []operatorCondition
		want  string
	}{
		{
			name: "degraded wins over available",
			conds: []operatorCondition{
				{Type: "Available", Status: "True", Reason: "AsExpected"},
				{Type: "Degraded", Status: "True", Reason: "NodeInstallerDegraded"},
			},
			want: "NodeInstallerDegraded",
		},
		{
			name: "degraded without reason",
			conds: []operatorCondition{
				{Type: "Degraded", Status: "True"},
			},
			want: "Degraded",
		},
		{
			name: "available reason",
			conds: []operatorCondition{
				{Type: "Degraded", Status: "False", Reason: "AsExpected"},
				{Type: "Available", Status: "True", Reason: "RollOutDone"},
			},
			want: "RollOutDone",
		},
		{
			name:  "no conditions",
			conds: nil,
			want:  "OK",
		},
		{
			name: "unrelated conditions only",
			conds: []operatorCondition{
				{Type: "Progressing", Status: "True", Reason: "Rolling"},
			},
			want: "OK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, operatorStatus(tt.conds))
		})
	}
}

func TestCommittedPercent(t *testing.T) {
	capacity := map[string]string{"cpu": "4", "memory": "100Mi", "junk": "xyz"}
	allocatable := map[string]string{"cpu": "3", "memory": "110Mi", "junk": "xyz"}

	cpu := committedPercent(capacity, allocatable, "cpu", parse.ParseCPU)
	require.NotNil(t, cpu)
	assert.InDelta(t, 25.0, *cpu, 0.001)

	// Allocatable above capacity clamps to zero, not negative
	mem := committedPercent(capacity, allocatable, "memory", parse.ParseMemory)
	require.NotNil(t, mem)
	assert.Zero(t, *mem)

	// Missing on either side means omitted
	assert.Nil(t, committedPercent(capacity, allocatable, "ephemeral-storage", parse.ParseMemory))
	assert.Nil(t, committedPercent(map[string]string{}, allocatable, "cpu", parse.ParseCPU))

	// Unparseable capacity is treated as missing (memory parser yields 0)
	assert.Nil(t, committedPercent(capacity, allocatable, "junk", parse.ParseMemory))
}
