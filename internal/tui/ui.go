package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/clusterpulse/internal/collect"
	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
	"github.com/ppiankov/clusterpulse/internal/parse"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // Blue
			MarginBottom(1)

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")). // Bright green
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")) // Yellow

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Bright red
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Dim gray

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // Bright white

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)
)

func renderView(m Model) string {
	if m.quitting {
		return "Dashboard closed.\n"
	}

	var b strings.Builder

	status := "Live"
	if m.refreshing {
		status = "Refreshing"
	}
	headerLine := fmt.Sprintf("clusterpulse dashboard [%s] | Tab=View ↑↓=Cluster R=Refresh Q=Quit", status)
	b.WriteString(titleStyle.Render(headerLine))
	b.WriteString("\n")

	if len(m.clusters) == 0 {
		if m.refreshing {
			b.WriteString(m.spinner.View())
			b.WriteString(dimStyle.Render(" Collecting first samples..."))
		} else {
			b.WriteString(dimStyle.Render("No cluster data."))
		}
		b.WriteString(renderFooter(m))
		return borderStyle.Render(b.String())
	}

	b.WriteString(renderClusterBar(m))
	b.WriteString("\n")
	b.WriteString(renderTabBar(m))
	b.WriteString("\n\n")

	_, obs := m.selectedObservation()
	if obs == nil || obs.Sample == nil {
		b.WriteString(dimStyle.Render("(no data for this cluster yet)"))
	} else {
		switch m.tab {
		case tabOperators:
			b.WriteString(renderOperators(obs.Sample))
		case tabNodes:
			b.WriteString(renderNodes(obs.Sample))
		case tabNamespaces:
			b.WriteString(renderNamespaces(obs.Sample))
		default:
			b.WriteString(renderOverview(obs))
		}
	}

	b.WriteString(renderFooter(m))
	return borderStyle.Render(b.String())
}

// renderClusterBar shows every cluster with its verdict emoji, the
// focused one highlighted.
func renderClusterBar(m Model) string {
	parts := make([]string, len(m.clusters))
	for i, name := range m.clusters {
		display := name
		if obs := m.current[name]; obs != nil {
			display = fmt.Sprintf("%s %s", obs.Health.Verdict.Emoji(), name)
		}
		if i == m.selected {
			parts[i] = selectedStyle.Render("[" + display + "]")
		} else {
			parts[i] = dimStyle.Render(" " + display + " ")
		}
	}
	return strings.Join(parts, " ")
}

func renderTabBar(m Model) string {
	parts := make([]string, tabCount)
	for i, name := range tabNames {
		if i == m.tab {
			parts[i] = selectedStyle.Render("[" + name + "]")
		} else {
			parts[i] = dimStyle.Render(" " + name + " ")
		}
	}
	return strings.Join(parts, " ")
}

func renderOverview(obs *diff.Observation) string {
	var b strings.Builder
	sample := obs.Sample

	b.WriteString(labelStyle.Render("Health:      "))
	b.WriteString(verdictStyle(obs.Health.Verdict).Render(fmt.Sprintf("%s %s", obs.Health.Verdict.Emoji(), obs.Health.Verdict)))
	b.WriteString("\n")

	if sample.User != "" {
		b.WriteString(labelStyle.Render("User:        "))
		b.WriteString(valueStyle.Render(sample.User))
		b.WriteString("\n")
	}

	ready, total := sample.ReadyNodes()
	b.WriteString(labelStyle.Render("Nodes:       "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d/%d ready", ready, total)))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Operators:   "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d/%d ok", okOperators(sample.Operators), len(sample.Operators))))
	b.WriteString("\n")

	if len(sample.NodeMetrics) > 0 {
		var cpu, memory float64
		for _, nm := range sample.NodeMetrics {
			cpu += nm.CPUValue()
			memory += nm.MemoryValue()
		}
		n := float64(len(sample.NodeMetrics))
		b.WriteString(labelStyle.Render("Avg CPU:     "))
		b.WriteString(valueStyle.Render(parse.FormatPercent(cpu / n)))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Avg memory:  "))
		b.WriteString(valueStyle.Render(parse.FormatPercent(memory / n)))
		b.WriteString("\n")
	}

	if sample.Namespaces != nil {
		b.WriteString(labelStyle.Render("Pods:        "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d total (%d running, %d failed, %d pending)",
			sample.Pods.Total, sample.Pods.Running, sample.Pods.Failed, sample.Pods.Pending)))
		b.WriteString("\n")
	}

	if len(obs.Health.Issues) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("🔴 %d ISSUES", len(obs.Health.Issues))))
		b.WriteString("\n")
		for _, issue := range obs.Health.Issues {
			b.WriteString(criticalStyle.Render("  • " + issue))
			b.WriteString("\n")
		}
	}

	if len(sample.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Collection errors:"))
		b.WriteString("\n")
		for _, e := range sample.Errors {
			b.WriteString(dimStyle.Render("  • " + e))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderOperators(sample *collect.ClusterSample) string {
	if sample.Operators == nil {
		return dimStyle.Render("(operator query failed — see overview errors)")
	}
	if len(sample.Operators) == 0 {
		return dimStyle.Render("(no cluster operators reported)")
	}

	names := make([]string, 0, len(sample.Operators))
	for name := range sample.Operators {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		status := sample.Operators[name]
		line := fmt.Sprintf("%-32s %s", name, status)
		if health.OperatorStatusOK(status) {
			b.WriteString(healthyStyle.Render("✓ "))
			b.WriteString(valueStyle.Render(line))
		} else {
			b.WriteString(errorStyle.Render("✗ "))
			b.WriteString(criticalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderNodes(sample *collect.ClusterSample) string {
	if sample.NodesReady == nil {
		return dimStyle.Render("(node query failed — see overview errors)")
	}
	if len(sample.NodesReady) == 0 {
		return dimStyle.Render("(no nodes reported)")
	}

	names := make([]string, 0, len(sample.NodesReady))
	for name := range sample.NodesReady {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if sample.NodesReady[name] {
			b.WriteString(healthyStyle.Render("✓ "))
		} else {
			b.WriteString(errorStyle.Render("✗ "))
		}
		b.WriteString(valueStyle.Render(fmt.Sprintf("%-28s", name)))

		if nm, ok := sample.NodeMetrics[name]; ok {
			parts := make([]string, 0, 3)
			if nm.CPU != nil {
				parts = append(parts, "cpu "+parse.FormatPercent(*nm.CPU))
			}
			if nm.Memory != nil {
				parts = append(parts, "mem "+parse.FormatPercent(*nm.Memory))
			}
			if nm.Disk != nil {
				parts = append(parts, "disk "+parse.FormatPercent(*nm.Disk))
			}
			b.WriteString(labelStyle.Render(strings.Join(parts, "  ")))
		}

		if usage, ok := sample.NodeUsage[name]; ok {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (live: %s cores, %s)",
				parse.FormatCores(usage.CPUCores), parse.FormatMemoryBytes(usage.MemoryBytes))))
		}

		b.WriteString("\n")
	}
	return b.String()
}

func renderNamespaces(sample *collect.ClusterSample) string {
	if sample.Namespaces == nil {
		return dimStyle.Render("(namespace query failed — see overview errors)")
	}

	names := make([]string, 0, len(sample.Namespaces))
	for name, ns := range sample.Namespaces {
		if ns.PodCount == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return dimStyle.Render("(no namespaces with pods)")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-24s %5s %5s %5s %5s %5s %7s", "NAMESPACE", "PODS", "RUN", "FAIL", "PEND", "SVC", "DEPLOY")))
	b.WriteString("\n")
	for _, name := range names {
		ns := sample.Namespaces[name]
		line := fmt.Sprintf("%-24s %5d %5d %5d %5d %5d %7d",
			ns.Name, ns.PodCount, ns.RunningPods, ns.FailedPods, ns.PendingPods, ns.ServiceCount, ns.DeploymentCount)
		if ns.FailedPods > 0 {
			b.WriteString(criticalStyle.Render(line))
		} else if ns.PendingPods > 0 {
			b.WriteString(warningStyle.Render(line))
		} else {
			b.WriteString(valueStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if pods := sample.CriticalPods(); len(pods) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("🚨 Problem pods:"))
		b.WriteString("\n")
		for _, pod := range pods {
			b.WriteString(criticalStyle.Render("  • " + pod))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderFooter(m Model) string {
	var b strings.Builder
	b.WriteString("\n")

	age := "never"
	if !m.lastUpdate.IsZero() {
		age = formatDuration(time.Since(m.lastUpdate)) + " ago"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Updated %s | refresh every %s | %d clusters", age, m.interval, len(m.clusters))))
	if m.refreshing {
		b.WriteString(" ")
		b.WriteString(m.spinner.View())
	}
	return b.String()
}

func verdictStyle(v health.Verdict) lipgloss.Style {
	switch v {
	case health.VerdictHealthy:
		return healthyStyle
	case health.VerdictWarning:
		return warningStyle
	case health.VerdictCritical:
		return criticalStyle
	case health.VerdictError:
		return errorStyle
	}
	return dimStyle
}

func okOperators(ops map[string]string) int {
	ok := 0
	for _, status := range ops {
		if health.OperatorStatusOK(status) {
			ok++
		}
	}
	return ok
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
