// Package scheduler runs the gateway's background jobs on cron
// schedules: symbol universe refresh, snapshot autosave and cleanup,
// and snapshot backups.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a schedulable unit of background work. Run receives a context
// that carries the job's deadline and is cancelled on shutdown.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs. Every run gets a context derived
// from the scheduler's base context, so Stop aborts in-flight work
// that honors cancellation. A slow run never overlaps with the next
// tick of the same job.
type Scheduler struct {
	cron   *cron.Cron
	base   context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// New creates a new scheduler. Schedules use six fields with seconds.
func New(log zerolog.Logger) *Scheduler {
	slog := log.With().Str("component", "scheduler").Logger()
	base, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{slog})),
		),
		base:   base,
		cancel: cancel,
		log:    slog,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop cancels in-flight runs and waits for them to finish
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule and a per-run timeout.
// Schedule examples:
//   - "0 */5 * * * *" - every 5 minutes
//   - "@hourly"       - every hour
//   - "@every 30s"    - every 30 seconds
func (s *Scheduler) AddJob(schedule string, timeout time.Duration, job Job) error {
	if timeout <= 0 {
		return fmt.Errorf("job %s: timeout must be positive", job.Name())
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(s.base, timeout)
		defer cancel()

		start := time.Now()
		s.log.Debug().Str("job", job.Name()).Msg("Running job")

		if err := job.Run(ctx); err != nil {
			s.log.Error().Err(err).
				Str("job", job.Name()).
				Dur("elapsed", time.Since(start)).
				Msg("Job failed")
			return
		}

		s.log.Debug().
			Str("job", job.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("Job completed")
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Dur("timeout", timeout).
		Msg("Job registered")

	return nil
}

// cronLogger adapts zerolog to the cron.Logger interface so the
// skip-if-still-running chain can report suppressed overlapping runs.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
