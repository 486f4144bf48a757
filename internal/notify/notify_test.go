package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
)

// recorder captures every event it is asked to deliver.
type recorder struct {
	events []Event
}

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

type failing struct{}

func (failing) Notify(context.Context, Event) error {
	return errors.New("channel down")
}

func fullChanges() diff.ChangeSet {
	return diff.ChangeSet{
		NewProblems:      []string{"Operator network degraded: ConnectivityIssues"},
		ResolvedProblems: []string{"Node worker-1 recovered"},
		StatusChanges:    []string{"Cluster health: HEALTHY → CRITICAL"},
		ResourceChanges:  []string{"Node worker-1: CPU critical (91.0%)"},
	}
}

func TestConsoleNotify(t *testing.T) {
	var buf bytes.Buffer
	c := Console{Out: &buf}

	err := c.Notify(context.Background(), Event{
		Cluster:  "prod-eu",
		Category: CategoryProblem,
		Lines:    []string{"Operator network degraded: ConnectivityIssues", "Node worker-2 down"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "🚨 New problems [prod-eu]")
	assert.Contains(t, out, "  • Operator network degraded: ConnectivityIssues")
	assert.Contains(t, out, "  • Node worker-2 down")
}

func TestDispatchAllCategories(t *testing.T) {
	rec := &recorder{}
	d := Dispatcher{Notifiers: []Notifier{rec}, SmartAlerts: true, Recovery: true}

	assessment := health.Assessment{
		Verdict: health.VerdictCritical,
		Issues:  []string{"Operator network in state: ConnectivityIssues"},
	}
	d.Dispatch(context.Background(), "prod-eu", assessment, fullChanges())

	require.Len(t, rec.events, 5)
	assert.Equal(t, CategoryCritical, rec.events[0].Category)
	assert.Equal(t, CategoryProblem, rec.events[1].Category)
	assert.Equal(t, CategoryResolved, rec.events[2].Category)
	assert.Equal(t, CategoryStatus, rec.events[3].Category)
	assert.Equal(t, CategoryResource, rec.events[4].Category)
	assert.Equal(t, []string{"Operator network in state: ConnectivityIssues"}, rec.events[0].Lines)
	for _, ev := range rec.events {
		assert.Equal(t, "prod-eu", ev.Cluster)
	}
}

func TestDispatchSmartAlertsDisabled(t *testing.T) {
	rec := &recorder{}
	d := Dispatcher{Notifiers: []Notifier{rec}, SmartAlerts: false, Recovery: true}

	assessment := health.Assessment{Verdict: health.VerdictError, Issues: []string{"monitoring error: connection refused"}}
	d.Dispatch(context.Background(), "prod-eu", assessment, fullChanges())

	// Critical issues still go out; change alerts do not.
	require.Len(t, rec.events, 1)
	assert.Equal(t, CategoryCritical, rec.events[0].Category)
}

func TestDispatchRecoveryDisabled(t *testing.T) {
	rec := &recorder{}
	d := Dispatcher{Notifiers: []Notifier{rec}, SmartAlerts: true, Recovery: false}

	d.Dispatch(context.Background(), "prod-eu", health.Assessment{Verdict: health.VerdictHealthy}, fullChanges())

	require.Len(t, rec.events, 3)
	for _, ev := range rec.events {
		assert.NotEqual(t, CategoryResolved, ev.Category)
	}
}

func TestDispatchHealthyQuiet(t *testing.T) {
	rec := &recorder{}
	d := Dispatcher{Notifiers: []Notifier{rec}, SmartAlerts: true, Recovery: true}

	d.Dispatch(context.Background(), "prod-eu", health.Assessment{Verdict: health.VerdictHealthy}, diff.ChangeSet{})

	assert.Empty(t, rec.events)
}

func TestDispatchSurvivesNotifierFailure(t *testing.T) {
	rec := &recorder{}
	d := Dispatcher{Notifiers: []Notifier{failing{}, rec}, SmartAlerts: true, Recovery: true}

	d.Dispatch(context.Background(), "prod-eu", health.Assessment{Verdict: health.VerdictHealthy}, diff.ChangeSet{
		NewProblems: []string{"Node worker-2 down"},
	})

	// The failing channel must not stop delivery to the others.
	require.Len(t, rec.events, 1)
	assert.Equal(t, []string{"Node worker-2 down"}, rec.events[0].Lines)
}

func TestDispatchRateLimited(t *testing.T) {
	rec := &recorder{}
	d := Dispatcher{
		Notifiers:   []Notifier{rec},
		Limiter:     NewLimiter(1, time.Hour),
		SmartAlerts: true,
		Recovery:    true,
	}
	changes := diff.ChangeSet{NewProblems: []string{"Node worker-2 down"}}

	d.Dispatch(context.Background(), "prod-eu", health.Assessment{Verdict: health.VerdictHealthy}, changes)
	d.Dispatch(context.Background(), "prod-eu", health.Assessment{Verdict: health.VerdictHealthy}, changes)

	assert.Len(t, rec.events, 1)
}

func TestCategoryTitles(t *testing.T) {
	assert.Equal(t, "New problems", CategoryProblem.Title())
	assert.Equal(t, "🚨", CategoryCritical.Emoji())
	assert.Equal(t, "✅", CategoryResolved.Emoji())
	assert.Equal(t, "unknown", Category("unknown").Title())
}
