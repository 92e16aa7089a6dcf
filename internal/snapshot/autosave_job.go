package snapshot

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Source describes one store slice to persist on each autosave run.
// Value must return the current snapshot of the slice.
type Source struct {
	Name  string
	TTL   time.Duration
	Value func() interface{}
}

// AutosaveJob periodically writes registered store slices to the
// snapshot database so a restart can serve cached data immediately.
type AutosaveJob struct {
	repo    *Repository
	sources []Source
	log     zerolog.Logger
}

// NewAutosaveJob creates a new autosave job
func NewAutosaveJob(repo *Repository, sources []Source, log zerolog.Logger) *AutosaveJob {
	return &AutosaveJob{
		repo:    repo,
		sources: sources,
		log:     log.With().Str("job", "snapshot_autosave").Logger(),
	}
}

// Run persists every registered slice. A failing slice is logged and
// skipped; the others still save. Cancellation stops between slices.
func (j *AutosaveJob) Run(ctx context.Context) error {
	var lastErr error
	for _, src := range j.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.repo.SaveSlice(src.Name, src.Value(), src.TTL); err != nil {
			j.log.Error().Err(err).Str("slice", src.Name).Msg("Failed to save snapshot slice")
			lastErr = err
			continue
		}
	}

	if lastErr == nil {
		j.log.Debug().Int("slices", len(j.sources)).Msg("Snapshot autosave completed")
	}

	return lastErr
}

// Name returns the job name for scheduling and logging
func (j *AutosaveJob) Name() string {
	return "snapshot_autosave"
}
