// Package cli implements the salescube command line interface.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"salescube/internal/config"
	"salescube/internal/logging"
	"salescube/internal/metrics"
	"salescube/internal/metrics/datadog"
	"salescube/pkg/version"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "salescube",
	Short: "Build the sales cube and load the sales warehouse",
	Long: `salescube joins the cleaned sales, customer, and product tables,
derives customer tenure attributes, aggregates them into the sales cube,
and rebuilds the relational warehouse.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: true})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./salescube.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("salescube %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
	},
}

// newMetricsBackend returns the configured metrics backend, or a no-op when
// metrics are disabled. The caller must Close it.
func newMetricsBackend(cmd *cobra.Command) (metrics.Backend, error) {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}, nil
	}
	return datadog.NewBackend(cmd.Context(), datadog.Options{
		JobName:    cfg.Metrics.JobName,
		Tags:       cfg.Metrics.Tags,
		FlushEvery: time.Duration(cfg.Metrics.FlushEvery) * time.Second,
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
