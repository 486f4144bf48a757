package collect

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/parse"
)

// API paths queried per cluster. Raw paths rather than typed clients
// so a single bearer-token transport can serve the core, apps,
// OpenShift config and metrics groups alike.
const (
	PathClusterOperators = "/apis/config.openshift.io/v1/clusteroperators"
	PathNodes            = "/api/v1/nodes"
	PathNamespaces       = "/api/v1/namespaces"
	PathNodeMetrics      = "/apis/metrics.k8s.io/v1beta1/nodes"
)

// PathNamespacePods returns the pod list path for one namespace.
func PathNamespacePods(namespace string) string {
	return "/api/v1/namespaces/" + namespace + "/pods"
}

// PathNamespaceServices returns the service list path for one namespace.
func PathNamespaceServices(namespace string) string {
	return "/api/v1/namespaces/" + namespace + "/services"
}

// PathNamespaceDeployments returns the deployment list path for one namespace.
func PathNamespaceDeployments(namespace string) string {
	return "/apis/apps/v1/namespaces/" + namespace + "/deployments"
}

// Decode targets for endpoints without a typed package at hand, and
// for node capacity fields that must stay raw strings so the total
// parsers absorb malformed values instead of the JSON decoder.
type clusterOperatorList struct {
	Items []struct {
		Metadata metav1.ObjectMeta `json:"metadata"`
		Status   struct {
			Conditions []operatorCondition `json:"conditions"`
		} `json:"status"`
	} `json:"items"`
}

type operatorCondition struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type nodeList struct {
	Items []struct {
		Metadata metav1.ObjectMeta `json:"metadata"`
		Status   struct {
			Capacity    map[string]string `json:"capacity"`
			Allocatable map[string]string `json:"allocatable"`
			Conditions  []nodeCondition   `json:"conditions"`
		} `json:"status"`
	} `json:"items"`
}

type nodeCondition struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Collector produces ClusterSamples over per-cluster transports.
type Collector struct {
	transports map[string]cluster.Transport
}

// New creates a Collector over the given transports, keyed by cluster name.
func New(transports map[string]cluster.Transport) *Collector {
	return &Collector{transports: transports}
}

// Collect builds one sample for the cluster. Connectivity is verified
// once before the detailed queries; a probe failure is encoded in the
// sample (Reachable=false, a single "monitoring error" entry, no
// partial data) rather than returned. The returned error is non-nil
// only when ctx was cancelled mid-collection.
func (c *Collector) Collect(ctx context.Context, cl config.Cluster) (*ClusterSample, error) {
	sample := &ClusterSample{
		Cluster:     cl.Name,
		CollectedAt: time.Now().UTC(),
	}

	tr, ok := c.transports[cl.Name]
	if !ok {
		sample.Errors = []string{fmt.Sprintf("monitoring error: no transport configured for %s", cl.Name)}
		return sample, nil
	}

	user, err := tr.Probe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sample.Errors = []string{fmt.Sprintf("monitoring error: %v", err)}
		return sample, nil
	}
	sample.Reachable = true
	sample.User = user

	ops, err := c.collectOperators(ctx, tr)
	if err != nil {
		sample.Errors = append(sample.Errors, fmt.Sprintf("operators: %v", err))
	} else {
		sample.Operators = ops
	}

	ready, metrics, err := c.collectNodes(ctx, tr)
	if err != nil {
		sample.Errors = append(sample.Errors, fmt.Sprintf("nodes: %v", err))
	} else {
		sample.NodesReady = ready
		sample.NodeMetrics = metrics
	}

	usage, err := c.collectNodeUsage(ctx, tr)
	if err != nil {
		sample.Errors = append(sample.Errors, fmt.Sprintf("node usage: %v", err))
	} else {
		sample.NodeUsage = usage
	}

	namespaces, pods, errs := c.collectNamespaces(ctx, tr)
	if namespaces != nil {
		sample.Namespaces = namespaces
		sample.Pods = pods
	}
	sample.Errors = append(sample.Errors, errs...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sample, nil
}

// collectOperators reduces each ClusterOperator to a single status string.
func (c *Collector) collectOperators(ctx context.Context, tr cluster.Transport) (map[string]string, error) {
	var list clusterOperatorList
	if err := tr.GetJSON(ctx, PathClusterOperators, &list); err != nil {
		return nil, err
	}
	ops := make(map[string]string, len(list.Items))
	for _, item := range list.Items {
		ops[item.Metadata.Name] = operatorStatus(item.Status.Conditions)
	}
	return ops, nil
}

// operatorStatus picks the Degraded reason when the operator reports
// Degraded=True, otherwise the Available reason, otherwise "OK".
// Reasons are what operators report in practice: AsExpected, RollOutDone.
func operatorStatus(conds []operatorCondition) string {
	available := ""
	for _, cond := range conds {
		switch cond.Type {
		case "Degraded":
			if cond.Status == "True" {
				if cond.Reason != "" {
					return cond.Reason
				}
				return "Degraded"
			}
		case "Available":
			available = cond.Reason
		}
	}
	if available != "" {
		return available
	}
	return "OK"
}

// collectNodes returns readiness plus capacity-commitment percentages
// per node. Usage is (capacity − allocatable) / capacity: how much of
// the machine Kubernetes has already promised away, not instantaneous
// load. The live numbers come separately from the metrics API.
func (c *Collector) collectNodes(ctx context.Context, tr cluster.Transport) (map[string]bool, map[string]NodeMetrics, error) {
	var list nodeList
	if err := tr.GetJSON(ctx, PathNodes, &list); err != nil {
		return nil, nil, err
	}

	ready := make(map[string]bool, len(list.Items))
	metrics := make(map[string]NodeMetrics, len(list.Items))
	for _, item := range list.Items {
		name := item.Metadata.Name

		nodeReady := false
		for _, cond := range item.Status.Conditions {
			if cond.Type == string(corev1.NodeReady) {
				nodeReady = cond.Status == string(corev1.ConditionTrue)
				break
			}
		}
		ready[name] = nodeReady

		metrics[name] = NodeMetrics{
			CPU:    committedPercent(item.Status.Capacity, item.Status.Allocatable, string(corev1.ResourceCPU), parse.ParseCPU),
			Memory: committedPercent(item.Status.Capacity, item.Status.Allocatable, string(corev1.ResourceMemory), parse.ParseMemory),
			Disk:   committedPercent(item.Status.Capacity, item.Status.Allocatable, string(corev1.ResourceEphemeralStorage), parse.ParseMemory),
		}
	}
	return ready, metrics, nil
}

// committedPercent computes (capacity − allocatable) / capacity × 100
// clamped to [0,100]. Returns nil when either side is missing or the
// parsed capacity is not positive — an omitted dimension, not a zero.
func committedPercent(capacity, allocatable map[string]string, resource string, parseFn func(string) float64) *float64 {
	capStr, okCap := capacity[resource]
	allocStr, okAlloc := allocatable[resource]
	if !okCap || !okAlloc {
		return nil
	}
	total := parseFn(capStr)
	if total <= 0 {
		return nil
	}
	used := (total - parseFn(allocStr)) / total * 100
	if used < 0 {
		used = 0
	}
	if used > 100 {
		used = 100
	}
	return &used
}

// collectNodeUsage reads live consumption from the metrics API. The
// facet is optional: clusters without metrics-server record the error
// and move on.
func (c *Collector) collectNodeUsage(ctx context.Context, tr cluster.Transport) (map[string]NodeUsage, error) {
	var list metricsv1beta1.NodeMetricsList
	if err := tr.GetJSON(ctx, PathNodeMetrics, &list); err != nil {
		return nil, err
	}
	usage := make(map[string]NodeUsage, len(list.Items))
	for i := range list.Items {
		nm := &list.Items[i]
		usage[nm.Name] = NodeUsage{
			CPUCores:    float64(nm.Usage.Cpu().MilliValue()) / 1000,
			MemoryBytes: float64(nm.Usage.Memory().Value()),
		}
	}
	return usage, nil
}

// collectNamespaces lists namespaces and counts pods, services and
// deployments inside each. A failed per-namespace count is recorded
// and leaves that counter at zero; the namespace itself stays listed.
func (c *Collector) collectNamespaces(ctx context.Context, tr cluster.Transport) (map[string]NamespaceSample, PodSummary, []string) {
	var summary PodSummary

	var list corev1.NamespaceList
	if err := tr.GetJSON(ctx, PathNamespaces, &list); err != nil {
		return nil, summary, []string{fmt.Sprintf("namespaces: %v", err)}
	}

	var errs []string
	namespaces := make(map[string]NamespaceSample, len(list.Items))
	for i := range list.Items {
		name := list.Items[i].Name
		ns := NamespaceSample{
			Name:  name,
			Phase: string(list.Items[i].Status.Phase),
		}

		if err := c.countPods(ctx, tr, &ns); err != nil {
			errs = append(errs, fmt.Sprintf("namespace %s pods: %v", name, err))
		}
		if err := c.countServices(ctx, tr, &ns); err != nil {
			errs = append(errs, fmt.Sprintf("namespace %s services: %v", name, err))
		}
		if err := c.countDeployments(ctx, tr, &ns); err != nil {
			errs = append(errs, fmt.Sprintf("namespace %s deployments: %v", name, err))
		}

		namespaces[name] = ns
		summary.Total += ns.PodCount
		summary.Running += ns.RunningPods
		summary.Failed += ns.FailedPods
		summary.Pending += ns.PendingPods
		summary.Succeeded += ns.SucceededPods
		summary.Unknown += ns.UnknownPods
	}
	return namespaces, summary, errs
}

// countPods fills the pod phase counters. Failed and Pending pods are
// flagged critical by name.
func (c *Collector) countPods(ctx context.Context, tr cluster.Transport, ns *NamespaceSample) error {
	var pods corev1.PodList
	if err := tr.GetJSON(ctx, PathNamespacePods(ns.Name), &pods); err != nil {
		return err
	}
	ns.PodCount = len(pods.Items)
	for i := range pods.Items {
		pod := &pods.Items[i]
		switch pod.Status.Phase {
		case corev1.PodRunning:
			ns.RunningPods++
		case corev1.PodFailed:
			ns.FailedPods++
			ns.CriticalPods = append(ns.CriticalPods, pod.Name)
		case corev1.PodPending:
			ns.PendingPods++
			ns.CriticalPods = append(ns.CriticalPods, pod.Name)
		case corev1.PodSucceeded:
			ns.SucceededPods++
		default:
			ns.UnknownPods++
		}
	}
	return nil
}

func (c *Collector) countServices(ctx context.Context, tr cluster.Transport, ns *NamespaceSample) error {
	var svcs corev1.ServiceList
	if err := tr.GetJSON(ctx, PathNamespaceServices(ns.Name), &svcs); err != nil {
		return err
	}
	ns.ServiceCount = len(svcs.Items)
	return nil
}

// countDeployments counts deployments and how many have all desired
// replicas ready. A nil replica spec means one desired replica.
func (c *Collector) countDeployments(ctx context.Context, tr cluster.Transport, ns *NamespaceSample) error {
	var deps appsv1.DeploymentList
	if err := tr.GetJSON(ctx, PathNamespaceDeployments(ns.Name), &deps); err != nil {
		return err
	}
	ns.DeploymentCount = len(deps.Items)
	for i := range deps.Items {
		d := &deps.Items[i]
		desired := int32(1)
		if d.Spec.Replicas != nil {
			desired = *d.Spec.Replicas
		}
		if d.Status.ReadyReplicas >= desired {
			ns.ReadyDeployments++
		}
	}
	return nil
}
