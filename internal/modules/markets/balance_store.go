package markets

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/domain"
)

// State is a snapshot of a store's operational flags
type State struct {
	Loading   bool   `json:"loading"`
	LastError string `json:"lastError,omitempty"`
}

// BalanceClient is the slice of the backend API the balance store needs
type BalanceClient interface {
	Balances(ctx context.Context, exchange string, segment domain.Segment) ([]domain.Balance, error)
}

// BalanceStore holds the balances of the most recently queried
// exchange+segment pair. Balances are session state only; they are never
// persisted across restarts.
type BalanceStore struct {
	client BalanceClient
	log    zerolog.Logger

	mu        sync.RWMutex
	balances  []domain.Balance
	exchange  string
	segment   domain.Segment
	loading   bool
	lastError string
}

// NewBalanceStore creates a new balance store
func NewBalanceStore(client BalanceClient, log zerolog.Logger) *BalanceStore {
	return &BalanceStore{
		client: client,
		log:    log.With().Str("store", "balances").Logger(),
	}
}

// Fetch replaces the cached balances for an exchange+segment pair.
// Failures are swallowed into store state rather than returned: the
// dashboard fires this on view changes and reads the error flag instead
// of handling a return value.
func (s *BalanceStore) Fetch(ctx context.Context, exchange string, segment domain.Segment) {
	s.setLoading(true)
	defer s.setLoading(false)

	exchange = strings.ToUpper(exchange)
	segment = domain.Segment(strings.ToUpper(string(segment)))

	balances, err := s.client.Balances(ctx, exchange, segment)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchange = exchange
	s.segment = segment
	if err != nil {
		s.balances = nil
		s.lastError = err.Error()
		s.log.Warn().Err(err).Str("exchange", exchange).Str("segment", string(segment)).Msg("Failed to fetch balances")
		return
	}

	s.balances = balances
	s.lastError = ""
}

// BalanceByAsset returns the cached balance for an asset, matching
// case-insensitively. Nil means the asset is not in the cache.
func (s *BalanceStore) BalanceByAsset(asset string) *domain.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.balances {
		if strings.EqualFold(s.balances[i].Asset, asset) {
			b := s.balances[i]
			return &b
		}
	}
	return nil
}

// Balances returns a snapshot copy of the cached balances together with
// the exchange+segment pair they belong to.
func (s *BalanceStore) Balances() ([]domain.Balance, string, domain.Segment) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Balance, len(s.balances))
	copy(out, s.balances)
	return out, s.exchange, s.segment
}

// State returns the current loading/error flags
func (s *BalanceStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Loading: s.loading, LastError: s.lastError}
}

func (s *BalanceStore) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}
