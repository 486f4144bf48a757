// Package engine drives the monitoring loop: collect every cluster in
// parallel, then assess, commit, report and alert per cluster in the
// configured order.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/collect"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
	"github.com/ppiankov/clusterpulse/internal/metrics"
	"github.com/ppiankov/clusterpulse/internal/notify"
	"github.com/ppiankov/clusterpulse/internal/report"
	"github.com/ppiankov/clusterpulse/internal/state"
	"github.com/ppiankov/clusterpulse/internal/util"
)

// Each cluster+category gets at most alertBudget alerts per alertWindow.
const (
	alertBudget = 5
	alertWindow = 30 * time.Minute
)

// Engine runs monitoring cycles over the configured fleet.
type Engine struct {
	cfg        *config.Config
	collector  *collect.Collector
	state      *state.Store
	reports    *report.Store
	thresholds health.Thresholds
	bands      diff.Bands
	dispatch   notify.Dispatcher
	metrics    *metrics.Set

	stopCh chan struct{}
	doneCh chan struct{}
}

// New wires an engine from configuration and per-cluster transports.
// metricsSet may be nil when no scrape endpoint is configured.
func New(cfg *config.Config, transports map[string]cluster.Transport, metricsSet *metrics.Set) *Engine {
	notifiers := []notify.Notifier{notify.Console{}}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.Webhook{
			URL:     cfg.WebhookURL,
			Timeout: cfg.RequestTimeout,
			Retries: 2,
		})
	}

	return &Engine{
		cfg:       cfg,
		collector: collect.New(transports),
		state:     state.NewStore(),
		reports: &report.Store{
			Dir:    cfg.ReportsDir,
			MaxAge: cfg.MaxReportAge,
			Prune:  cfg.BackupReports,
		},
		thresholds: health.Thresholds{
			CPUCritical:    cfg.CPUCritical,
			MemoryCritical: cfg.MemoryCritical,
			DiskCritical:   cfg.DiskCritical,
		},
		bands: diff.Bands{
			CPUCritical:    cfg.CPUCritical,
			CPURecovery:    cfg.CPURecovery,
			MemoryCritical: cfg.MemoryCritical,
			MemoryRecovery: cfg.MemoryRecovery,
			DiskCritical:   cfg.DiskCritical,
			DiskRecovery:   cfg.DiskRecovery,
		},
		dispatch: notify.Dispatcher{
			Notifiers:   notifiers,
			Limiter:     notify.NewLimiter(alertBudget, alertWindow),
			SmartAlerts: cfg.SmartAlerts,
			Recovery:    cfg.RecoveryNotifications,
		},
		metrics: metricsSet,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// State exposes the in-memory fleet state for status views.
func (e *Engine) State() *state.Store {
	return e.state
}

// Current returns a deep-copied snapshot of the latest observations.
func (e *Engine) Current() map[string]*diff.Observation {
	return e.state.Current()
}

// Run executes cycles until Stop or context cancellation. The first
// cycle starts immediately rather than one interval in.
func (e *Engine) Run(ctx context.Context) error {
	fd, err := e.lockReports()
	if err != nil {
		return err
	}
	defer util.ReleaseLock(fd)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	e.Cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			close(e.doneCh)
			return ctx.Err()
		case <-e.stopCh:
			close(e.doneCh)
			return nil
		case <-ticker.C:
			e.Cycle(ctx)
		}
	}
}

// Stop ends Run and waits for the loop to exit.
func (e *Engine) Stop() {
	close(e.stopCh)
	<-e.doneCh
}

// Once runs a single full cycle and returns.
func (e *Engine) Once(ctx context.Context) error {
	fd, err := e.lockReports()
	if err != nil {
		return err
	}
	defer util.ReleaseLock(fd)

	e.Cycle(ctx)
	return ctx.Err()
}

// The flock keeps two watchers from interleaving reports in one
// directory.
func (e *Engine) lockReports() (int, error) {
	if err := os.MkdirAll(e.cfg.ReportsDir, 0755); err != nil {
		return -1, fmt.Errorf("create reports dir: %w", err)
	}
	fd, err := util.AcquireLock(filepath.Join(e.cfg.ReportsDir, ".clusterpulse.lock"))
	if err != nil {
		return -1, fmt.Errorf("reports dir %s is owned by another watcher: %w", e.cfg.ReportsDir, err)
	}
	return fd, nil
}

// Cycle runs one full pass: reports are saved, alerts dispatched and
// metrics observed.
func (e *Engine) Cycle(ctx context.Context) {
	started := time.Now()
	fmt.Fprintf(os.Stderr, "\n[clusterpulse] Starting monitoring cycle...\n")

	e.pass(ctx, true)

	e.WriteStatusTable(os.Stdout)
	if e.metrics != nil {
		e.metrics.ObserveCycle(time.Since(started))
	}
	fmt.Fprintf(os.Stderr, "[clusterpulse] Monitoring cycle completed at %s\n", time.Now().Format("15:04:05"))
}

// Survey collects and assesses without reports, alerts or metrics.
// One-shot status views use it to fill the state store.
func (e *Engine) Survey(ctx context.Context) {
	e.pass(ctx, false)
}

func (e *Engine) pass(ctx context.Context, full bool) {
	samples := e.collectAll(ctx)

	// Commit order follows the configured cluster order, not goroutine
	// finish order.
	for _, cl := range e.cfg.Clusters {
		sample := samples[cl.Name]
		if sample == nil {
			continue
		}

		assessment := health.Assess(sample, e.thresholds)
		changes := e.state.Commit(cl.Name, &diff.Observation{Sample: sample, Health: assessment}, e.bands)

		if !full {
			continue
		}

		content := report.Markdown(report.Report{Sample: sample, Assessment: assessment, Changes: &changes})
		if _, err := e.reports.Save(cl.Name, content); err != nil {
			fmt.Fprintf(os.Stderr, "[clusterpulse] warning: save report for %s: %v\n", cl.Name, err)
		}

		e.dispatch.Dispatch(ctx, cl.Name, assessment, changes)

		if e.metrics != nil {
			e.metrics.ObserveCluster(cl.Name, assessment.Verdict, len(sample.Errors), changes)
		}
	}
}

// collectAll fans cluster collection out under the concurrency cap.
// A missing map entry afterwards means the context died mid-cycle.
func (e *Engine) collectAll(ctx context.Context) map[string]*collect.ClusterSample {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		samples = make(map[string]*collect.ClusterSample, len(e.cfg.Clusters))
	)
	sem := make(chan struct{}, e.cfg.MaxConcurrent)

	for _, cl := range e.cfg.Clusters {
		wg.Add(1)
		go func(cl config.Cluster) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			sample, err := e.collector.Collect(ctx, cl)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[clusterpulse] %s: collection aborted: %v\n", cl.Name, err)
				return
			}
			mu.Lock()
			samples[cl.Name] = sample
			mu.Unlock()
		}(cl)
	}
	wg.Wait()
	return samples
}
