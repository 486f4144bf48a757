package cli

import (
	"fmt"

	promversion "github.com/prometheus/common/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(promversion.Print("clusterpulse"))
	},
}

func init() {
	// Release builds inject version, revision and branch through -ldflags
	// on github.com/prometheus/common/version. The compiled-in release
	// number is the fallback so `clusterpulse version` and the build_info
	// metric never report empty.
	if promversion.Version == "" {
		promversion.Version = version
	}

	rootCmd.AddCommand(versionCmd)
}
