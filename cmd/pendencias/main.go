// Command pendencias is the operator CLI for the pendências monitor: run the
// batch once, compare snapshots between dates, list stored snapshots, and
// test database connectivity.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmaia/pendencias-monitor/internal/config"
	"github.com/rmaia/pendencias-monitor/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "pendencias",
	Short:         "Execute and analyze pendência queries",
	Long:          `Pendências monitor: runs the stored pendência queries, records daily history, and compares historical snapshots.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(checkCmd)
}

// loadEnv loads configuration and builds the CLI logger.
func loadEnv(verbose bool) (*config.Config, *appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := "warn"
	if verbose {
		level = cfg.LogLevel
	}

	log := logger.New(logger.Config{
		Level:  level,
		Pretty: true,
	})

	return cfg, &appEnv{log: log}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
