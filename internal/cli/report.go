package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/collect"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/health"
	"github.com/ppiankov/clusterpulse/internal/report"
)

var reportConfig struct {
	cluster string
	format  string
	output  string
	save    bool
	diff    bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render, save or diff a single cluster report",
	Long: `Collect one cluster and render its health report.

By default the report is written to stdout as markdown. With --output the
format follows the file extension unless --format says otherwise; --save
additionally stores a timestamped copy in the reports directory, the same
way the watch loop does every cycle.

With --diff no collection happens at all: the two most recent saved
reports are compared and the unified diff is printed.

Examples:
  # Markdown report on stdout
  clusterpulse report --cluster prod-eu

  # JSON export, format inferred from the extension
  clusterpulse report --cluster prod-eu --output prod-eu.json

  # Store a copy next to the watch loop's reports
  clusterpulse report --cluster prod-eu --save

  # What changed between the two most recent saved reports?
  clusterpulse report --cluster prod-eu --diff`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Flags
	reportCmd.Flags().StringVar(&reportConfig.cluster, "cluster", "", "Cluster name to report on (required)")
	reportCmd.Flags().StringVar(&reportConfig.format, "format", "", "Output format: markdown or json (default inferred from --output, else markdown)")
	reportCmd.Flags().StringVar(&reportConfig.output, "output", "", "Write the report to this file instead of stdout")
	reportCmd.Flags().BoolVar(&reportConfig.save, "save", false, "Also store a timestamped copy in the reports directory")
	reportCmd.Flags().BoolVar(&reportConfig.diff, "diff", false, "Diff the two most recent saved reports instead of collecting")

	reportCmd.MarkFlagRequired("cluster")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := &report.Store{
		Dir:    cfg.ReportsDir,
		MaxAge: cfg.MaxReportAge,
		Prune:  cfg.BackupReports,
	}

	if reportConfig.diff {
		patch, err := store.DiffLatest(reportConfig.cluster)
		if err != nil {
			return err
		}
		if patch == "" {
			fmt.Println("No differences between the two most recent reports.")
			return nil
		}
		fmt.Print(patch)
		return nil
	}

	target, err := findCluster(cfg, reportConfig.cluster)
	if err != nil {
		return err
	}

	format, err := resolveFormat(cmd)
	if err != nil {
		return err
	}

	tr, err := cluster.New(*target, cfg.RequestTimeout, cfg.InsecureTLS)
	if err != nil {
		return err
	}

	if IsVerbose() {
		fmt.Fprintf(os.Stderr, "[clusterpulse] Collecting %s...\n", target.Name)
	}

	collector := collect.New(map[string]cluster.Transport{target.Name: tr})
	sample, err := collector.Collect(context.Background(), *target)
	if err != nil {
		return err
	}

	rep := report.Report{
		Sample: sample,
		Assessment: health.Assess(sample, health.Thresholds{
			CPUCritical:    cfg.CPUCritical,
			MemoryCritical: cfg.MemoryCritical,
			DiskCritical:   cfg.DiskCritical,
		}),
	}

	if reportConfig.save {
		path, err := store.Save(target.Name, report.Markdown(rep))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "[clusterpulse] Saved %s\n", path)
	}

	var w io.Writer = os.Stdout
	if reportConfig.output != "" {
		f, err := os.Create(reportConfig.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", reportConfig.output, err)
		}
		defer f.Close()
		w = f
	}

	exp := report.Exporter{
		Format: format,
		Metadata: report.Metadata{
			GeneratedAt: time.Now().UTC(),
			Version:     version,
			Cluster:     target.Name,
		},
	}
	return exp.Export(rep, w)
}

func findCluster(cfg *config.Config, name string) (*config.Cluster, error) {
	for i := range cfg.Clusters {
		if cfg.Clusters[i].Name == name {
			return &cfg.Clusters[i], nil
		}
	}
	return nil, fmt.Errorf("cluster %q is not configured", name)
}

// resolveFormat picks the export format: an explicit --format wins, then
// the --output extension, then markdown.
func resolveFormat(cmd *cobra.Command) (report.Format, error) {
	if cmd.Flags().Changed("format") {
		switch format := report.Format(reportConfig.format); format {
		case report.FormatMarkdown, report.FormatJSON:
			return format, nil
		default:
			return "", fmt.Errorf("invalid format: %s (must be markdown or json)", reportConfig.format)
		}
	}
	if reportConfig.output != "" {
		return report.DetectFormat(reportConfig.output), nil
	}
	return report.FormatMarkdown, nil
}
