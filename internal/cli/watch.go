package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/engine"
	"github.com/ppiankov/clusterpulse/internal/metrics"
	"github.com/ppiankov/clusterpulse/internal/util"
)

var watchConfig struct {
	interval      time.Duration
	once          bool
	reportsDir    string
	maxReportAge  time.Duration
	metricsListen string
	webhookURL    string
	maxConcurrent int
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously monitor the configured clusters",
	Long: `Run the monitoring loop: collect every cluster in parallel, assess
health, write a markdown report per cluster and cycle, and dispatch alerts
for new or recovered problems.

Each cycle prints the aggregate status table. The reports directory is
protected by a lock file so two watchers never interleave their reports.

Examples:
  # Watch with the configured interval (MONITORING_INTERVAL, default 5m)
  clusterpulse watch

  # Faster cycles into a dedicated directory
  clusterpulse watch --interval 60s --reports-dir /var/lib/clusterpulse

  # One cycle and exit; exit code 1 when any cluster is critical
  clusterpulse watch --once

  # Expose Prometheus metrics for the fleet and the monitor itself
  clusterpulse watch --metrics-listen :9109`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	// Flags
	watchCmd.Flags().DurationVar(&watchConfig.interval, "interval", 0, "Monitoring interval (default MONITORING_INTERVAL or 5m)")
	watchCmd.Flags().BoolVar(&watchConfig.once, "once", false, "Run a single cycle and exit")
	watchCmd.Flags().StringVar(&watchConfig.reportsDir, "reports-dir", "", "Directory for markdown reports (default REPORTS_DIRECTORY or ./reports)")
	watchCmd.Flags().DurationVar(&watchConfig.maxReportAge, "max-report-age", 0, "Delete saved reports older than this (default MAX_REPORTS_AGE_DAYS)")
	watchCmd.Flags().StringVar(&watchConfig.metricsListen, "metrics-listen", "", "Address for the Prometheus /metrics endpoint (disabled when empty)")
	watchCmd.Flags().StringVar(&watchConfig.webhookURL, "webhook-url", "", "Webhook endpoint for alert events (default WEBHOOK_URL)")
	watchCmd.Flags().IntVar(&watchConfig.maxConcurrent, "max-concurrent", 0, "Parallel cluster collections (default MAX_CONCURRENT_COLLECTIONS or 4)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if IsVerbose() {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			fmt.Fprintf(os.Stderr, "[clusterpulse] flag override: --%s=%s\n", f.Name, f.Value)
		})
	}

	degraded, err := watchFleet()
	if err != nil {
		return err
	}
	if degraded {
		util.Exit(util.ExitDegraded)
	}
	return nil
}

// watchFleet runs the loop (or the single cycle) and reports whether the
// fleet ended the run with critical findings. It owns all cleanup so the
// caller is free to os.Exit afterwards.
func watchFleet() (bool, error) {
	cfg, err := loadWatchConfig()
	if err != nil {
		return false, err
	}

	transports, err := cluster.Connect(cfg.Clusters, cfg.RequestTimeout, cfg.InsecureTLS)
	if err != nil {
		return false, err
	}

	var set *metrics.Set
	if watchConfig.metricsListen != "" {
		set = metrics.NewSet()
		server := metrics.NewServer(watchConfig.metricsListen, set)
		server.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(stopCtx); err != nil {
				fmt.Fprintf(os.Stderr, "[clusterpulse] warning: stop metrics listener: %v\n", err)
			}
		}()
		if IsVerbose() {
			fmt.Fprintf(os.Stderr, "[clusterpulse] Serving metrics on %s/metrics\n", watchConfig.metricsListen)
		}
	}

	eng := engine.New(cfg, transports, set)
	ctx := context.Background()

	if watchConfig.once {
		if err := eng.Once(ctx); err != nil {
			return false, err
		}
		return fleetDegraded(eng), nil
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		fmt.Fprintf(os.Stderr, "\n[clusterpulse] Received interrupt, finishing current cycle (press again to force quit)...\n")
		go eng.Stop()
		<-sigCh
		util.Exit(util.ExitInterrupted)
	}()

	fmt.Fprintf(os.Stderr, "[clusterpulse] Watching %d clusters every %s (reports in %s)\n",
		len(cfg.Clusters), cfg.Interval, cfg.ReportsDir)

	return false, eng.Run(ctx)
}

// loadWatchConfig builds the runtime config and applies flag overrides on
// top of it. Flags beat environment variables beat defaults.
func loadWatchConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if watchConfig.interval > 0 {
		cfg.Interval = watchConfig.interval
	}
	if watchConfig.reportsDir != "" {
		cfg.ReportsDir = watchConfig.reportsDir
	}
	if watchConfig.maxReportAge > 0 {
		cfg.MaxReportAge = watchConfig.maxReportAge
	}
	if watchConfig.webhookURL != "" {
		cfg.WebhookURL = watchConfig.webhookURL
	}
	if watchConfig.maxConcurrent > 0 {
		cfg.MaxConcurrent = watchConfig.maxConcurrent
	}
	return cfg, nil
}
