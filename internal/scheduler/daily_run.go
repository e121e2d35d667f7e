package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmaia/pendencias-monitor/internal/database"
	"github.com/rmaia/pendencias-monitor/internal/modules/runner"
)

// DailyRunJob executes the full pendências batch on schedule. A run that is
// still going when the next trigger fires is not joined; the trigger is
// skipped instead.
type DailyRunJob struct {
	runner  *runner.Service
	db      *database.DB
	base    context.Context
	log     zerolog.Logger
	running atomic.Bool

	// OnSummary, when set, receives every completed run summary.
	OnSummary func(*runner.RunSummary)
}

// NewDailyRunJob creates a new daily run job. Cancelling base interrupts an
// in-flight batch at the next item boundary.
func NewDailyRunJob(svc *runner.Service, db *database.DB, base context.Context, log zerolog.Logger) *DailyRunJob {
	if base == nil {
		base = context.Background()
	}
	return &DailyRunJob{
		runner: svc,
		db:     db,
		base:   base,
		log:    log.With().Str("job", "daily_run").Logger(),
	}
}

// Name returns the job name
func (j *DailyRunJob) Name() string {
	return "daily_run"
}

// Run pings the database and, when reachable, executes the whole batch.
func (j *DailyRunJob) Run() error {
	if !j.running.CompareAndSwap(false, true) {
		j.log.Warn().Msg("Batch already running, skipping trigger")
		return nil
	}
	defer j.running.Store(false)

	ctx := j.base

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := j.db.Ping(pingCtx); err != nil {
		return fmt.Errorf("database unreachable, aborting scheduled run: %w", err)
	}

	summary, err := j.runner.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("scheduled run failed: %w", err)
	}

	j.log.Info().
		Int("success", summary.SuccessCount).
		Int("errors", summary.ErrorCount).
		Int64("pendencias", summary.TotalCount).
		Msg("Scheduled run completed")

	if j.OnSummary != nil {
		j.OnSummary(summary)
	}

	return nil
}
