package markets

import (
	"context"

	"github.com/rs/zerolog"
)

// RefreshJob re-fetches the symbol universe in the background so the
// strategy builder always has the exchange/segment pair lists at hand.
type RefreshJob struct {
	store *SymbolStore
	log   zerolog.Logger
}

// NewRefreshJob creates a new symbol refresh job
func NewRefreshJob(store *SymbolStore, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		store: store,
		log:   log.With().Str("job", "symbol_refresh").Logger(),
	}
}

// Run refreshes the symbol universe. The store's own TTL makes this a
// no-op when the cache is still fresh.
func (j *RefreshJob) Run(ctx context.Context) error {
	if err := j.store.Fetch(ctx); err != nil {
		j.log.Error().Err(err).Msg("Symbol refresh failed")
		return err
	}

	return nil
}

// Name returns the job name for scheduling and logging
func (j *RefreshJob) Name() string {
	return "symbol_refresh"
}
