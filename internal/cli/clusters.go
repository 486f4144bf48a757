package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ppiankov/clusterpulse/internal/cluster"
	"github.com/ppiankov/clusterpulse/internal/config"
	"github.com/ppiankov/clusterpulse/internal/util"
)

var clustersConfig struct {
	probe bool
}

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List the configured fleet with masked credentials",
	Long: `Print the configured clusters as a table. Tokens are always masked;
this command never prints a credential.

With --probe each cluster's API is contacted once and the authenticated
username (or the failure) is shown next to it.

Examples:
  # Show the fleet
  clusterpulse clusters

  # Verify connectivity and tokens
  clusterpulse clusters --probe`,
	RunE: runClusters,
}

func init() {
	rootCmd.AddCommand(clustersCmd)

	// Flags
	clustersCmd.Flags().BoolVar(&clustersConfig.probe, "probe", false, "Probe each cluster's API and show the authenticated user")
}

func runClusters(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	header := []string{"Name", "API URL", "Token"}
	if clustersConfig.probe {
		header = append(header, "Probe")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header(header)

	ctx := context.Background()
	for _, cl := range cfg.Clusters {
		row := []string{cl.Name, cl.APIURL, util.MaskToken(cl.Token)}
		if clustersConfig.probe {
			row = append(row, probeCluster(ctx, cl, cfg))
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

func probeCluster(ctx context.Context, cl config.Cluster, cfg *config.Config) string {
	tr, err := cluster.New(cl, cfg.RequestTimeout, cfg.InsecureTLS)
	if err != nil {
		return fmt.Sprintf("✗ %v", err)
	}
	user, err := tr.Probe(ctx)
	if err != nil {
		return fmt.Sprintf("✗ %v", err)
	}
	return "✓ " + user
}
