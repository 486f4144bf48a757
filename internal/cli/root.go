package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "1.0.0"

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "clusterpulse",
	Short: "Multi-cluster OpenShift health monitor with reports and smart alerts",
	Long: `clusterpulse watches a fleet of OpenShift clusters from the outside and
tells you when something needs attention:

• Cluster operators, node conditions, node usage, namespaces and pods
• Health verdicts with configurable CPU, memory and disk thresholds
• Markdown reports per cycle, with diffs against the previous cycle
• Deduplicated webhook alerts with recovery notifications
• Prometheus metrics for the fleet and for the monitor itself

Modes:
  - watch: continuous monitoring loop with reports and alerts
  - status: one-shot fleet survey with an aggregate table and totals
  - dashboard: interactive terminal UI over the same data
  - report: render, save or diff a single cluster report
  - clusters: list the configured fleet with masked credentials`,
	Version: version,
	// Disable default completion command
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clusterpulse.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory with name ".clusterpulse" (without extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".clusterpulse")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// IsVerbose returns the verbose flag value
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}
