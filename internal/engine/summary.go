package engine

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ppiankov/clusterpulse/internal/collect"
	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
)

// WriteStatusTable renders one row per observed cluster in the order
// the state store sorts them.
func (e *Engine) WriteStatusTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Cluster", "Health", "Operators", "Nodes", "Last Check"})

	for _, name := range e.state.Clusters() {
		current, _ := e.state.Cluster(name)
		if current == nil || current.Sample == nil {
			continue
		}
		sample := current.Sample

		okOps := 0
		for _, status := range sample.Operators {
			if health.OperatorStatusOK(status) {
				okOps++
			}
		}
		ready, total := sample.ReadyNodes()

		table.Append([]string{
			name,
			fmt.Sprintf("%s %s", current.Health.Verdict.Emoji(), current.Health.Verdict),
			fmt.Sprintf("%d/%d", okOps, len(sample.Operators)),
			fmt.Sprintf("%d/%d", ready, total),
			sample.CollectedAt.Format("15:04:05"),
		})
	}

	table.Render()
}

// FleetSummary renders the whole fleet as one chat-ready message.
func (e *Engine) FleetSummary() string {
	return FleetSummary(e.state.Current(), time.Now())
}

// FleetSummary renders per-cluster blocks followed by fleet totals and
// an overall tier. The tier counts problem pods and critical issues
// together: zero is healthy, under five a warning, anything more
// critical.
func FleetSummary(current map[string]*diff.Observation, at time.Time) string {
	if len(current) == 0 {
		return "⚠️ No cluster data available"
	}

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("📊 **FLEET SUMMARY**\n")
	fmt.Fprintf(&b, "🕐 **Time:** %s\n\n", at.Format("15:04:05"))

	var totals collect.PodSummary
	clusters, criticalCount := 0, 0

	for _, name := range names {
		obs := current[name]
		if obs == nil || obs.Sample == nil {
			continue
		}
		sample := obs.Sample
		clusters++

		fmt.Fprintf(&b, "🏠 **Cluster:** %s\n", name)
		fmt.Fprintf(&b, "🏥 **State:** %s %s\n", obs.Health.Verdict.Emoji(), obs.Health.Verdict)

		ready, total := sample.ReadyNodes()
		fmt.Fprintf(&b, "🖥️ **Nodes:** %d/%d ✅\n", ready, total)

		okOps := 0
		for _, status := range sample.Operators {
			if health.OperatorStatusOK(status) {
				okOps++
			}
		}
		fmt.Fprintf(&b, "⚙️ **Operators:** %d/%d ✅\n", okOps, len(sample.Operators))

		if len(sample.NodeMetrics) > 0 {
			avgCPU, avgMemory := averageMetrics(sample.NodeMetrics)
			fmt.Fprintf(&b, "📈 **Avg CPU:** %s %.1f%%\n", cpuTier(avgCPU), avgCPU)
			fmt.Fprintf(&b, "💾 **Avg Memory Use:** %s %.1f%%\n", memoryTier(avgMemory), avgMemory)
		}

		if sample.Namespaces != nil {
			fmt.Fprintf(&b, "🐳 **Pods:** %d\n", sample.Pods.Total)
			fmt.Fprintf(&b, "  • Running: %d ✅\n", sample.Pods.Running)
			fmt.Fprintf(&b, "  • Failed: %d ❌\n", sample.Pods.Failed)
			fmt.Fprintf(&b, "  • Pending: %d ⏳\n", sample.Pods.Pending)
			totals.Total += sample.Pods.Total
			totals.Running += sample.Pods.Running
			totals.Failed += sample.Pods.Failed
			totals.Pending += sample.Pods.Pending
		}

		if pods := sample.CriticalPods(); len(pods) > 0 {
			fmt.Fprintf(&b, "🚨 **Problem Pods:** %d\n", len(pods))
			writeCapped(&b, pods, 3)
			criticalCount += len(pods)
		}

		if issues := obs.Health.Issues; len(issues) > 0 {
			fmt.Fprintf(&b, "⚠️ **Critical Issues:** %d\n", len(issues))
			writeCapped(&b, issues, 2)
			criticalCount += len(issues)
		}

		b.WriteString("\n" + strings.Repeat("─", 40) + "\n\n")
	}

	b.WriteString("**📊 FLEET TOTALS:**\n")
	fmt.Fprintf(&b, "🏠 **Clusters:** %d\n", clusters)
	fmt.Fprintf(&b, "🐳 **Total Pods:** %d\n", totals.Total)
	fmt.Fprintf(&b, "✅ **Running:** %d\n", totals.Running)
	fmt.Fprintf(&b, "❌ **Failed:** %d\n", totals.Failed)
	fmt.Fprintf(&b, "⏳ **Pending:** %d\n", totals.Pending)
	fmt.Fprintf(&b, "🚨 **Critical Issues:** %d\n", criticalCount)

	switch {
	case criticalCount == 0:
		b.WriteString("\n🎉 **Fleet State:** 🟢 HEALTHY")
	case criticalCount < 5:
		b.WriteString("\n⚠️ **Fleet State:** 🟡 WARNING")
	default:
		b.WriteString("\n🚨 **Fleet State:** 🔴 CRITICAL")
	}

	return b.String()
}

// writeCapped prints up to max bullet lines and a trailer for the rest.
func writeCapped(b *strings.Builder, lines []string, max int) {
	for i, line := range lines {
		if i == max {
			fmt.Fprintf(b, "  ... and %d more\n", len(lines)-max)
			return
		}
		fmt.Fprintf(b, "  • %s\n", line)
	}
}

// averageMetrics averages each dimension over every node. A node
// missing a dimension contributes zero, matching how the per-node
// values read when the metrics query partially fails.
func averageMetrics(metrics map[string]collect.NodeMetrics) (cpu, memory float64) {
	for _, m := range metrics {
		cpu += m.CPUValue()
		memory += m.MemoryValue()
	}
	n := float64(len(metrics))
	return cpu / n, memory / n
}

func cpuTier(v float64) string {
	switch {
	case v < 50:
		return "🟢"
	case v < 80:
		return "🟡"
	default:
		return "🔴"
	}
}

func memoryTier(v float64) string {
	switch {
	case v < 70:
		return "🟢"
	case v < 90:
		return "🟡"
	default:
		return "🔴"
	}
}
