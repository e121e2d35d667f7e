package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rmaia/pendencias-monitor/internal/database"
	"github.com/rmaia/pendencias-monitor/internal/events"
	"github.com/rmaia/pendencias-monitor/internal/modules/catalog"
	"github.com/rmaia/pendencias-monitor/internal/modules/history"
	"github.com/rmaia/pendencias-monitor/internal/modules/responsibility"
	"github.com/rmaia/pendencias-monitor/internal/modules/runner"
)

// appEnv carries the pieces every subcommand needs.
type appEnv struct {
	log zerolog.Logger
}

var runVerbose bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute all pendência queries once",
	Long:  `Runs every stored pendência query against the database, records today's counts in the history table, and saves a JSON snapshot of the run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, env, err := loadEnv(runVerbose)
		if err != nil {
			return err
		}

		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return err
		}

		svc := runner.New(runner.Config{
			DB:        db,
			Catalog:   catalog.NewRepository(db.Conn(), env.log),
			Resolver:  responsibility.NewResolver(cfg.DefaultUserID, env.log),
			History:   history.NewRepository(env.log),
			Snapshots: runner.NewSnapshotWriter(cfg.OutputDir, env.log),
			Events:    events.NewManager(env.log),
			Log:       env.log,
		})

		// Ctrl-C stops the batch at the next query boundary; whatever ran
		// so far is still summarized.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, err := svc.RunAll(ctx)
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), summary)

		return nil
	},
}

func init() {
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "enable detailed execution logs")
}
