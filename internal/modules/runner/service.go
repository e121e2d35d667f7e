package runner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmaia/pendencias-monitor/internal/database"
	"github.com/rmaia/pendencias-monitor/internal/events"
	"github.com/rmaia/pendencias-monitor/internal/modules/catalog"
	"github.com/rmaia/pendencias-monitor/internal/modules/history"
	"github.com/rmaia/pendencias-monitor/internal/modules/responsibility"
)

// Service executes the full pendências batch: every stored query runs against
// one shared connection, each count is written to the daily history, and the
// collected results become a run summary plus a JSON snapshot.
//
// Failure discipline: one bad query must not sink the rest. Per-item errors
// are converted to tagged results and the loop continues; only a connection
// that cannot be opened at all (or an empty catalog) aborts the run.
type Service struct {
	db        *database.DB
	catalog   *catalog.Repository
	resolver  *responsibility.Resolver
	history   *history.Repository
	snapshots *SnapshotWriter
	events    *events.Manager
	log       zerolog.Logger
}

// Config holds the runner service dependencies
type Config struct {
	DB        *database.DB
	Catalog   *catalog.Repository
	Resolver  *responsibility.Resolver
	History   *history.Repository
	Snapshots *SnapshotWriter
	Events    *events.Manager
	Log       zerolog.Logger
}

// New creates a new runner service
func New(cfg Config) *Service {
	return &Service{
		db:        cfg.DB,
		catalog:   cfg.Catalog,
		resolver:  cfg.Resolver,
		history:   cfg.History,
		snapshots: cfg.Snapshots,
		events:    cfg.Events,
		log:       cfg.Log.With().Str("service", "runner").Logger(),
	}
}

// RunAll executes every stored pendência query in catalog order and returns
// the aggregated summary. Cancelling ctx stops the loop at the next item
// boundary and the results gathered so far are still summarized. A nil
// summary means the run failed outright: no queries to execute, or no
// connection to execute them on.
func (s *Service) RunAll(ctx context.Context) (*RunSummary, error) {
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()

	queries, err := s.catalog.List(ctx)
	if err != nil {
		s.events.EmitError("runner", err, map[string]interface{}{"run_id": runID})
		return nil, fmt.Errorf("failed to load pendências: %w", err)
	}
	if len(queries) == 0 {
		s.events.Emit(events.RunFailed, "runner", map[string]interface{}{"run_id": runID, "reason": "empty catalog"})
		return nil, fmt.Errorf("no pendências to execute")
	}

	log.Info().Int("total", len(queries)).Msg("Starting batch execution")
	s.events.Emit(events.RunStarted, "runner", map[string]interface{}{
		"run_id": runID,
		"total":  len(queries),
	})

	// One connection for the whole batch. History writes share it, so they
	// never desync from the query that produced the count.
	conn, err := s.db.AcquireConn(ctx)
	if err != nil {
		s.events.Emit(events.RunFailed, "runner", map[string]interface{}{"run_id": runID, "reason": "connection"})
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	results := make([]ExecutionResult, 0, len(queries))
	interrupted := false

	for i, pq := range queries {
		if ctx.Err() != nil {
			log.Warn().Int("at", i+1).Msg("Execution interrupted")
			interrupted = true
			break
		}

		log.Info().
			Int("index", i+1).
			Int("total", len(queries)).
			Str("name", pq.DisplayName()).
			Msg("Executing query")

		result := s.executeOne(ctx, conn, pq)

		if ctx.Err() != nil {
			// The in-flight query was torn down by the cancellation; the
			// aborted attempt is not a real failure, so drop it.
			log.Warn().Int("at", i+1).Msg("Execution interrupted")
			interrupted = true
			break
		}

		results = append(results, result)

		if result.IsSuccess() {
			log.Info().
				Int("index", i+1).
				Int64("count", *result.Count).
				Msg("Query completed")
		} else {
			log.Warn().
				Int("index", i+1).
				Str("error", *result.Error).
				Msg("Query failed")
		}

		if (i+1)%10 == 0 {
			log.Info().
				Int("processed", i+1).
				Int("total", len(queries)).
				Str("progress", fmt.Sprintf("%.1f%%", float64(i+1)/float64(len(queries))*100)).
				Msg("Progress")
		}
	}

	summary := Summarize(results, len(queries), time.Now())
	summary.Interrupted = interrupted

	if path, err := s.snapshots.Write(summary); err != nil {
		// A snapshot failure never invalidates the summary already built.
		log.Error().Err(err).Msg("Failed to save snapshot")
		s.events.EmitError("runner", err, map[string]interface{}{"run_id": runID})
	} else {
		s.events.Emit(events.SnapshotSaved, "runner", map[string]interface{}{
			"run_id": runID,
			"path":   path,
		})
	}

	eventType := events.RunCompleted
	if interrupted {
		eventType = events.RunInterrupted
	}
	s.events.Emit(eventType, "runner", map[string]interface{}{
		"run_id":  runID,
		"success": summary.SuccessCount,
		"errors":  summary.ErrorCount,
		"total":   summary.TotalCount,
	})

	log.Info().
		Int("success", summary.SuccessCount).
		Int("errors", summary.ErrorCount).
		Int64("pendencias", summary.TotalCount).
		Str("rate", fmt.Sprintf("%.1f%%", summary.SuccessRate())).
		Msg("Batch execution finished")

	return summary, nil
}

// executeOne runs a single stored query and converts the outcome, success or
// failure, into an ExecutionResult. This is the only place a query error is
// caught; it never propagates past this boundary.
func (s *Service) executeOne(ctx context.Context, conn *sql.Conn, pq catalog.PendingQuery) ExecutionResult {
	preview := previewSQL(pq.SQL)

	result := ExecutionResult{
		ID:          pq.ID,
		PendenciaID: pq.PendenciaID,
		Name:        pq.Name,
		GroupID:     pq.GroupID,
		DisplayMode: pq.DisplayMode,
		Preview:     &preview,
	}

	count, err := fetchCount(ctx, conn, pq.SQL)
	if err != nil {
		msg := err.Error()
		result.Status = StatusError
		result.Error = &msg
		s.log.Error().Err(err).Str("name", pq.DisplayName()).Msg("Query execution failed")
		return result
	}

	// NULL counts and empty result sets both mean "nothing pending": the
	// query succeeded and history still gets a zero for today.
	result.Status = StatusSuccess
	result.Count = &count

	owner := s.resolver.Resolve(ctx, conn, pq.PendenciaID)
	if err := s.history.UpsertDaily(ctx, conn, pq.PendenciaID, count, owner.ID); err != nil {
		// Counting succeeded; bookkeeping is best-effort. The result stays
		// a success.
		s.log.Error().Err(err).Int64("pendencia_id", pq.PendenciaID).Msg("History write failed")
		s.events.Emit(events.HistoryWriteMiss, "runner", map[string]interface{}{
			"pendencia_id": pq.PendenciaID,
			"error":        err.Error(),
		})
	} else {
		s.log.Debug().
			Int64("pendencia_id", pq.PendenciaID).
			Int64("count", count).
			Int64("user_id", owner.ID).
			Str("user", owner.Name).
			Msg("History recorded")
	}

	return result
}

// fetchCount executes a stored pendência query and returns the first column
// of its first row coerced to an integer. No row, or a NULL value, counts as
// zero. Extra columns are fetched and discarded.
func fetchCount(ctx context.Context, conn *sql.Conn, query string) (int64, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	var first sql.NullFloat64
	dest := make([]interface{}, len(cols))
	dest[0] = &first
	for i := 1; i < len(cols); i++ {
		dest[i] = new(interface{})
	}

	if err := rows.Scan(dest...); err != nil {
		return 0, err
	}

	if !first.Valid {
		return 0, nil
	}

	return int64(first.Float64), nil
}
