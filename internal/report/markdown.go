package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
)

// Markdown renders the full status report. Saved reports get compared
// line by line, so section order and row order must stay stable.
func Markdown(rep Report) string {
	var b strings.Builder
	s := rep.Sample

	fmt.Fprintf(&b, "# Cluster Status Report\n\n")
	fmt.Fprintf(&b, "**Cluster:** %s  \n", s.Cluster)
	fmt.Fprintf(&b, "**Date:** %s  \n", s.CollectedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Overall State:** %s  \n", rep.Assessment.Verdict)

	writeOperators(&b, s.Operators)
	writeNodes(&b, s.NodesReady)
	writeResources(&b, rep)
	writePods(&b, rep)
	writeNamespaces(&b, rep)
	writeIssues(&b, rep.Assessment.Issues)
	writeChanges(&b, rep.Changes)

	b.WriteString("\n---\n*Report generated automatically by clusterpulse*\n")
	return b.String()
}

func writeOperators(b *strings.Builder, operators map[string]string) {
	b.WriteString("\n## 🟢 Operator Status\n\n| Operator | Status |\n|----------|---------|\n")
	for _, name := range sortedKeys(operators) {
		status := operators[name]
		emoji := "⚠️"
		if health.OperatorStatusOK(status) {
			emoji = "✅"
		}
		fmt.Fprintf(b, "| %s | %s %s |\n", name, emoji, status)
	}
}

func writeNodes(b *strings.Builder, nodes map[string]bool) {
	b.WriteString("\n## 🖥️ Node Status\n\n| Node | Status |\n|------|---------|\n")
	for _, name := range sortedKeys(nodes) {
		if nodes[name] {
			fmt.Fprintf(b, "| %s | ✅ Operational |\n", name)
		} else {
			fmt.Fprintf(b, "| %s | ❌ Down |\n", name)
		}
	}
}

func writeResources(b *strings.Builder, rep Report) {
	metrics := rep.Sample.NodeMetrics
	if len(metrics) == 0 {
		return
	}

	b.WriteString("\n## 📊 Resource Metrics\n")
	b.WriteString("\n### Memory Available per Node\n| Node | Available Memory |\n|------|-------------------|\n")
	for _, name := range sortedKeys(metrics) {
		m := metrics[name]
		if m.Memory == nil {
			continue
		}
		available := 100 - *m.Memory
		emoji := "🔴"
		switch {
		case available > 80:
			emoji = "🟢"
		case available > 60:
			emoji = "🟡"
		}
		fmt.Fprintf(b, "| %s | %s %.1f%% |\n", name, emoji, available)
	}

	b.WriteString("\n### CPU Use per Node\n| Node | CPU Use |\n|------|-------------|\n")
	for _, name := range sortedKeys(metrics) {
		m := metrics[name]
		if m.CPU == nil {
			continue
		}
		emoji := "🔴"
		switch {
		case *m.CPU < 50:
			emoji = "🟢"
		case *m.CPU < 80:
			emoji = "🟡"
		}
		fmt.Fprintf(b, "| %s | %s %.1f%% |\n", name, emoji, *m.CPU)
	}
}

func writePods(b *strings.Builder, rep Report) {
	if rep.Sample.Namespaces == nil {
		return
	}
	p := rep.Sample.Pods
	b.WriteString("\n## 🐳 Pod Summary\n\n| State | Count |\n|--------|----------|\n")
	fmt.Fprintf(b, "| Total | %d |\n", p.Total)
	fmt.Fprintf(b, "| Running | %d |\n", p.Running)
	fmt.Fprintf(b, "| Failed | %d |\n", p.Failed)
	fmt.Fprintf(b, "| Pending | %d |\n", p.Pending)
}

func writeNamespaces(b *strings.Builder, rep Report) {
	namespaces := rep.Sample.Namespaces
	if len(namespaces) == 0 {
		return
	}

	b.WriteString("\n## 📁 Namespace Status\n\n")
	b.WriteString("| Namespace | Pods | Running | Failed | Pending | Services | Deployments |\n")
	b.WriteString("|-----------|------|---------|--------|---------|----------|-------------|\n")
	for _, name := range sortedKeys(namespaces) {
		ns := namespaces[name]
		// Namespaces without pods stay out of the table
		if ns.PodCount == 0 {
			continue
		}
		emoji := "🔴"
		switch {
		case ns.FailedPods == 0:
			emoji = "🟢"
		case ns.PendingPods > 0:
			emoji = "🟡"
		}
		fmt.Fprintf(b, "| %s | %s %d | %d | %d | %d | %d | %d |\n",
			name, emoji, ns.PodCount, ns.RunningPods, ns.FailedPods, ns.PendingPods, ns.ServiceCount, ns.DeploymentCount)
	}

	if critical := rep.Sample.CriticalPods(); len(critical) > 0 {
		b.WriteString("\n### 🚨 Problem Pods\n\n")
		for _, pod := range critical {
			fmt.Fprintf(b, "- %s\n", pod)
		}
	}
}

func writeIssues(b *strings.Builder, issues []string) {
	if len(issues) == 0 {
		b.WriteString("\n## ✅ System State\n\nNo critical issues detected.\n")
		return
	}
	b.WriteString("\n## 🚨 Critical Issues\n\n")
	for _, issue := range issues {
		fmt.Fprintf(b, "- %s\n", issue)
	}
}

func writeChanges(b *strings.Builder, changes *diff.ChangeSet) {
	if changes == nil || changes.Empty() {
		return
	}
	b.WriteString("\n## 📈 Detected Changes\n\n")
	writeChangeList(b, "New Problems", changes.NewProblems)
	writeChangeList(b, "Resolved Problems", changes.ResolvedProblems)
	writeChangeList(b, "Status Changes", changes.StatusChanges)
	writeChangeList(b, "Resource Changes", changes.ResourceChanges)
}

func writeChangeList(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**: \n", title)
	for _, line := range lines {
		fmt.Fprintf(b, "- %s\n", line)
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
