package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/engine"
	"github.com/ppiankov/clusterpulse/internal/util"
)

var statusConfig struct {
	noSummary bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "One-shot fleet survey with an aggregate table and totals",
	Long: `Collect and assess every configured cluster once, then print the
aggregate status table and the fleet summary. Nothing is written to the
reports directory and no alerts are dispatched.

The exit code is 1 when any cluster ends up CRITICAL or ERROR, so the
command doubles as a health check in scripts and cron jobs.

Examples:
  # Survey the fleet
  clusterpulse status

  # Just the table
  clusterpulse status --no-summary`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	// Flags
	statusCmd.Flags().BoolVar(&statusConfig.noSummary, "no-summary", false, "Skip the fleet summary block, print only the table")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	transports, err := cluster.Connect(cfg.Clusters, cfg.RequestTimeout, cfg.InsecureTLS)
	if err != nil {
		return err
	}

	eng := engine.New(cfg, transports, nil)

	if IsVerbose() {
		fmt.Fprintf(os.Stderr, "[clusterpulse] Surveying %d clusters...\n", len(cfg.Clusters))
	}
	eng.Survey(context.Background())

	eng.WriteStatusTable(os.Stdout)
	if !statusConfig.noSummary {
		fmt.Println()
		fmt.Println(eng.FleetSummary())
	}

	if fleetDegraded(eng) {
		util.Exit(util.ExitDegraded)
	}
	return nil
}

// fleetDegraded reports whether any cluster in the last pass ended up
// CRITICAL or ERROR.
func fleetDegraded(eng *engine.Engine) bool {
	for _, obs := range eng.Current() {
		if obs == nil {
			continue
		}
		if obs.Health.Verdict.Bad() {
			return true
		}
	}
	return false
}
