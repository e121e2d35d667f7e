package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmaia/pendencias-monitor/internal/modules/trends"
)

var (
	compareFrom    string
	compareTo      string
	compareVerbose bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare snapshots between two dates",
	Long:  `Loads the run snapshots of two dates and prints the comparative trend report: reductions, increases, and the top reductions by absolute value and by percentage. Defaults to yesterday against today.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, env, err := loadEnv(compareVerbose)
		if err != nil {
			return err
		}

		now := time.Now()
		from := now.AddDate(0, 0, -1)
		to := now

		if compareFrom != "" {
			from, err = time.Parse("2006-01-02", compareFrom)
			if err != nil {
				return fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
			}
		}
		if compareTo != "" {
			to, err = time.Parse("2006-01-02", compareTo)
			if err != nil {
				return fmt.Errorf("invalid --to date, use YYYY-MM-DD: %w", err)
			}
		}

		svc := trends.NewService(cfg.OutputDir, env.log)

		report, err := svc.Report(from, to)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), report)

		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareFrom, "from", "", "older date (YYYY-MM-DD, default yesterday)")
	compareCmd.Flags().StringVar(&compareTo, "to", "", "newer date (YYYY-MM-DD, default today)")
	compareCmd.Flags().BoolVarP(&compareVerbose, "verbose", "v", false, "enable detailed logs")
}
