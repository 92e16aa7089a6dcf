// Package strategies holds the strategy cache store and the form-assembly
// logic for creating strategies.
package strategies

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
)

// BackendClient is the slice of the backend API the strategy store needs
type BackendClient interface {
	Strategies(ctx context.Context) ([]domain.Strategy, error)
	CreateStrategy(ctx context.Context, input backend.StrategyInput) (*domain.Strategy, error)
	UpdateStrategy(ctx context.Context, id string, patch domain.StrategyPatch) (*domain.Strategy, error)
	DeleteStrategy(ctx context.Context, id string) error
}

// State is a snapshot of the store's operational flags
type State struct {
	Loading   bool   `json:"loading"`
	LastError string `json:"lastError,omitempty"`
}

// Store caches the user's strategies. The backend owns the data; the store
// mirrors the last confirmed state and never mutates locally before the
// backend has confirmed the write.
type Store struct {
	client BackendClient
	log    zerolog.Logger

	mu         sync.RWMutex
	strategies []domain.Strategy
	loading    bool
	lastError  string
}

// NewStore creates a new strategy store
func NewStore(client BackendClient, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		log:    log.With().Str("store", "strategies").Logger(),
	}
}

// Fetch replaces the cached list wholesale with the backend's collection.
// On failure the list is emptied rather than left stale, and the error is
// recorded for display.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	strategies, err := s.client.Strategies(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.strategies = nil
		s.lastError = err.Error()
		s.log.Error().Err(err).Msg("Failed to fetch strategies")
		return err
	}

	s.strategies = strategies
	s.lastError = ""
	s.log.Debug().Int("count", len(strategies)).Msg("Strategies refreshed")
	return nil
}

// Create posts a new strategy and appends the server-returned entity on
// success. On failure the local list is untouched and the error is both
// recorded and returned so callers can chain UI feedback.
func (s *Store) Create(ctx context.Context, input backend.StrategyInput) (*domain.Strategy, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	created, err := s.client.CreateStrategy(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	s.strategies = append(s.strategies, *created)
	s.lastError = ""
	s.log.Info().Str("id", created.ID).Str("name", created.Name).Msg("Strategy created")
	return created, nil
}

// Update applies a partial update. The matching local entry is replaced
// with the server-confirmed entity; nothing changes locally on failure.
func (s *Store) Update(ctx context.Context, id string, patch domain.StrategyPatch) (*domain.Strategy, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	updated, err := s.client.UpdateStrategy(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	for i := range s.strategies {
		if s.strategies[i].ID == id {
			s.strategies[i] = *updated
			break
		}
	}
	s.lastError = ""
	return updated, nil
}

// Delete removes a strategy. The local entry is filtered out only after
// the backend confirms; a failed delete leaves the list unchanged.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	err := s.client.DeleteStrategy(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return err
	}

	kept := s.strategies[:0]
	for _, st := range s.strategies {
		if st.ID != id {
			kept = append(kept, st)
		}
	}
	s.strategies = kept
	s.lastError = ""
	s.log.Info().Str("id", id).Msg("Strategy deleted")
	return nil
}

// Strategies returns a snapshot copy of the cached list
func (s *Store) Strategies() []domain.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Strategy, len(s.strategies))
	copy(out, s.strategies)
	return out
}

// StrategyByID returns the cached strategy with the given id, or
// domain.ErrNotFound.
func (s *Store) StrategyByID(id string) (*domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.strategies {
		if s.strategies[i].ID == id {
			st := s.strategies[i]
			return &st, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Replace installs a previously persisted snapshot without touching the
// backend. Used at startup by the snapshot loader.
func (s *Store) Replace(strategies []domain.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies = strategies
}

// State returns the current loading/error flags
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Loading: s.loading, LastError: s.lastError}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}
