package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/engine"
	"github.com/ppiankov/clusterpulse/internal/tui"
)

var dashboardConfig struct {
	interval time.Duration
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive terminal dashboard over the fleet",
	Long: `Watch the fleet in an interactive terminal UI.

The dashboard surveys the clusters in the background on the monitoring
interval and never blocks the screen on a slow cluster. Nothing is written
to the reports directory and no alerts are dispatched.

Keys:
  Tab / Shift+Tab   switch view (Overview, Operators, Nodes, Namespaces)
  1-4               jump to a view
  Up / Down         select cluster
  r                 refresh now
  q                 quit

Examples:
  # Dashboard with the configured interval
  clusterpulse dashboard

  # Tighter refresh for an incident
  clusterpulse dashboard --interval 30s`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	// Flags
	dashboardCmd.Flags().DurationVar(&dashboardConfig.interval, "interval", 0, "Refresh interval (default MONITORING_INTERVAL or 5m)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dashboardConfig.interval > 0 {
		cfg.Interval = dashboardConfig.interval
	}

	transports, err := cluster.Connect(cfg.Clusters, cfg.RequestTimeout, cfg.InsecureTLS)
	if err != nil {
		return err
	}

	eng := engine.New(cfg, transports, nil)

	model := tui.NewModel(eng, cfg.Interval)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}
