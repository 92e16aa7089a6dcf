// Package main is the entry point for the TradeDeck dashboard gateway.
// The gateway sits between the browser dashboard and the trading backend:
// it proxies strategy, market, copy-trading and connection operations,
// caches backend data in local snapshot stores, and streams live prices
// for charting.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradedeck/tradedeck/internal/config"
	"github.com/tradedeck/tradedeck/internal/di"
	"github.com/tradedeck/tradedeck/internal/scheduler"
	"github.com/tradedeck/tradedeck/internal/server"
	"github.com/tradedeck/tradedeck/pkg/logger"
)

// Background job schedules (cron with seconds field).
const (
	scheduleSymbolRefresh   = "0 */10 * * * *" // every 10 minutes
	scheduleAutosave        = "30 */5 * * * *" // every 5 minutes, offset from refresh
	scheduleSnapshotCleanup = "0 15 * * * *"   // hourly
	defaultBackupSchedule   = "0 0 3 * * *"    // daily at 03:00
)

// Per-run job timeouts. A run past its timeout is cancelled through
// its context.
const (
	timeoutSymbolRefresh   = 30 * time.Second
	timeoutAutosave        = 30 * time.Second
	timeoutSnapshotCleanup = time.Minute
	timeoutBackup          = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting TradeDeck gateway")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Start the price stream before serving chart endpoints so the
	// first requests already see live data when the feed is reachable.
	if container.PriceStream != nil {
		if err := container.PriceStream.Start(); err != nil {
			log.Warn().Err(err).Msg("Price stream unavailable, continuing without live prices")
		}
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(scheduleSymbolRefresh, timeoutSymbolRefresh, jobs.SymbolRefresh); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule symbol refresh job")
	}
	if err := sched.AddJob(scheduleAutosave, timeoutAutosave, jobs.SnapshotAutosave); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule snapshot autosave job")
	}
	if err := sched.AddJob(scheduleSnapshotCleanup, timeoutSnapshotCleanup, jobs.SnapshotCleanup); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule snapshot cleanup job")
	}
	if jobs.Backup != nil {
		schedule := defaultBackupSchedule
		if cfg.Backup.Schedule != "" {
			schedule = cfg.Backup.Schedule
		}
		if err := sched.AddJob(schedule, timeoutBackup, jobs.Backup); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule backup job")
		}
	}

	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})
	srv.RegisterJobs(jobs.SymbolRefresh, jobs.SnapshotAutosave, jobs.SnapshotCleanup)
	if jobs.Backup != nil {
		srv.RegisterJobs(jobs.Backup)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Gateway started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the scheduler first so no job races the closing stores.
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Gateway stopped")
}
