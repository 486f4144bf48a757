// Package notify delivers categorized cluster alerts to the console and
// to an optional webhook endpoint, with a tumbling-window rate limit so
// a flapping cluster cannot flood the channel.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
)

// Category classifies an alert for routing and rate limiting.
type Category string

const (
	CategoryCritical Category = "critical_issues"
	CategoryProblem  Category = "new_problems"
	CategoryResolved Category = "resolved_problems"
	CategoryStatus   Category = "status_changes"
	CategoryResource Category = "resource_changes"
)

// Title is the human heading used by the console notifier.
func (c Category) Title() string {
	switch c {
	case CategoryCritical:
		return "Critical issues"
	case CategoryProblem:
		return "New problems"
	case CategoryResolved:
		return "Resolved problems"
	case CategoryStatus:
		return "Status changes"
	case CategoryResource:
		return "Resource changes"
	}
	return string(c)
}

// Emoji tags console output per category.
func (c Category) Emoji() string {
	switch c {
	case CategoryCritical, CategoryProblem:
		return "🚨"
	case CategoryResolved:
		return "✅"
	case CategoryStatus:
		return "ℹ️"
	case CategoryResource:
		return "📊"
	}
	return "•"
}

// Event is a single categorized alert for one cluster.
type Event struct {
	Cluster  string    `json:"cluster"`
	Category Category  `json:"category"`
	Lines    []string  `json:"lines"`
	At       time.Time `json:"at"`
}

// Notifier delivers a single event to one channel.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Console writes events to a terminal, one emoji-tagged block per event.
type Console struct {
	Out io.Writer // defaults to os.Stderr
}

func (c Console) Notify(_ context.Context, ev Event) error {
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "\n%s %s [%s]\n", ev.Category.Emoji(), ev.Category.Title(), ev.Cluster)
	for _, line := range ev.Lines {
		fmt.Fprintf(out, "  • %s\n", line)
	}
	return nil
}

// Dispatcher fans a cycle's outcome out to the configured notifiers.
type Dispatcher struct {
	Notifiers   []Notifier
	Limiter     *Limiter // nil means unlimited
	SmartAlerts bool     // gate on all change alerts
	Recovery    bool     // gate on resolved-problem alerts only
}

// Dispatch reports one cluster's cycle. Critical issues always go out;
// change alerts honor the smart-alert and recovery settings. Notifier
// failures are logged and never abort the cycle.
func (d Dispatcher) Dispatch(ctx context.Context, cluster string, assessment health.Assessment, changes diff.ChangeSet) {
	now := time.Now()
	var events []Event

	if assessment.Verdict.Bad() && len(assessment.Issues) > 0 {
		events = append(events, Event{Cluster: cluster, Category: CategoryCritical, Lines: assessment.Issues, At: now})
	}

	if d.SmartAlerts {
		if len(changes.NewProblems) > 0 {
			events = append(events, Event{Cluster: cluster, Category: CategoryProblem, Lines: changes.NewProblems, At: now})
		}
		if d.Recovery && len(changes.ResolvedProblems) > 0 {
			events = append(events, Event{Cluster: cluster, Category: CategoryResolved, Lines: changes.ResolvedProblems, At: now})
		}
		if len(changes.StatusChanges) > 0 {
			events = append(events, Event{Cluster: cluster, Category: CategoryStatus, Lines: changes.StatusChanges, At: now})
		}
		if len(changes.ResourceChanges) > 0 {
			events = append(events, Event{Cluster: cluster, Category: CategoryResource, Lines: changes.ResourceChanges, At: now})
		}
	}

	for _, ev := range events {
		if d.Limiter != nil && !d.Limiter.Allow(ev.Cluster, ev.Category) {
			fmt.Fprintf(os.Stderr, "[clusterpulse] rate limit: dropping %s alert for %s\n", ev.Category, ev.Cluster)
			continue
		}
		for _, n := range d.Notifiers {
			if err := n.Notify(ctx, ev); err != nil {
				fmt.Fprintf(os.Stderr, "[clusterpulse] warning: notify %s for %s: %v\n", ev.Category, ev.Cluster, err)
			}
		}
	}
}
