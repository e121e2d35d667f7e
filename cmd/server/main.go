package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmaia/pendencias-monitor/internal/config"
	"github.com/rmaia/pendencias-monitor/internal/database"
	"github.com/rmaia/pendencias-monitor/internal/events"
	"github.com/rmaia/pendencias-monitor/internal/modules/catalog"
	"github.com/rmaia/pendencias-monitor/internal/modules/history"
	"github.com/rmaia/pendencias-monitor/internal/modules/responsibility"
	"github.com/rmaia/pendencias-monitor/internal/modules/runner"
	"github.com/rmaia/pendencias-monitor/internal/modules/trends"
	"github.com/rmaia/pendencias-monitor/internal/scheduler"
	"github.com/rmaia/pendencias-monitor/internal/server"
	"github.com/rmaia/pendencias-monitor/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting Pendências Monitor")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Cancelling this context interrupts an in-flight batch at the next
	// item boundary; partial results are still summarized.
	runCtx, stopRuns := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopRuns()

	// Wire services
	eventManager := events.NewManager(log)
	catalogRepo := catalog.NewRepository(db.Conn(), log)
	resolver := responsibility.NewResolver(cfg.DefaultUserID, log)
	historyRepo := history.NewRepository(log)
	snapshotWriter := runner.NewSnapshotWriter(cfg.OutputDir, log)
	trendsService := trends.NewService(cfg.OutputDir, log)

	runnerService := runner.New(runner.Config{
		DB:        db,
		Catalog:   catalogRepo,
		Resolver:  resolver,
		History:   historyRepo,
		Snapshots: snapshotWriter,
		Events:    eventManager,
		Log:       log,
	})

	runJob := scheduler.NewDailyRunJob(runnerService, db, runCtx, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RunSchedule, runJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register daily run job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Trends:  trendsService,
		RunJob:  runJob,
		DevMode: cfg.DevMode,
	})
	runJob.OnSummary = srv.SetLatestSummary

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Execute one batch at startup, like the legacy scheduler did
	if cfg.RunOnStartup {
		go func() {
			if err := sched.RunNow(runJob); err != nil {
				log.Error().Err(err).Msg("Startup run failed")
			}
		}()
	}

	// Wait for interrupt signal
	<-runCtx.Done()

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
