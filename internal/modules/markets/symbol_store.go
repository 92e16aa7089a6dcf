// Package markets holds the cached market data the dashboard reads:
// tradable symbols grouped by type and exchange, and per-asset balances.
package markets

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/domain"
)

// symbolCacheTTL is how long a fetched symbol universe stays fresh.
// Symbol listings change rarely; refetching more often is wasted traffic.
const symbolCacheTTL = 5 * time.Minute

// SymbolClient is the slice of the backend API the symbol store needs
type SymbolClient interface {
	SymbolPairs(ctx context.Context) (domain.SymbolUniverse, error)
}

// segmentTypeKeys maps a market segment to the coarse type key the
// backend groups symbols under.
var segmentTypeKeys = map[domain.Segment]string{
	domain.SegmentSpot:    "CRYPTO_SPOT",
	domain.SegmentFutures: "CRYPTO_FUTURES",
	domain.SegmentMargin:  "CRYPTO_MARGIN",
}

// SymbolStore caches the tradable-symbol universe with a short TTL
type SymbolStore struct {
	client SymbolClient
	log    zerolog.Logger

	mu        sync.RWMutex
	universe  domain.SymbolUniverse
	lastFetch time.Time
	loading   bool
	lastError string
}

// NewSymbolStore creates a new symbol store
func NewSymbolStore(client SymbolClient, log zerolog.Logger) *SymbolStore {
	return &SymbolStore{
		client: client,
		log:    log.With().Str("store", "symbols").Logger(),
	}
}

// Fetch refreshes the cached universe. It is a no-op while the last
// successful fetch is under the TTL; callers can always invoke it cheaply.
func (s *SymbolStore) Fetch(ctx context.Context) error {
	s.mu.RLock()
	fresh := !s.lastFetch.IsZero() && time.Since(s.lastFetch) < symbolCacheTTL
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	s.setLoading(true)
	defer s.setLoading(false)

	universe, err := s.client.SymbolPairs(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		s.log.Error().Err(err).Msg("Failed to fetch symbol pairs")
		return err
	}

	s.universe = universe
	s.lastFetch = time.Now()
	s.lastError = ""
	s.log.Debug().Int("type_groups", len(universe)).Msg("Symbol universe refreshed")
	return nil
}

// SymbolsByExchange returns the cached symbols for an exchange within a
// segment. The lookup is case-insensitive on the exchange and an empty
// slice is the contract for any miss; it never errors.
func (s *SymbolStore) SymbolsByExchange(exchange string, segment domain.Segment) []domain.Symbol {
	typeKey, ok := segmentTypeKeys[domain.Segment(strings.ToUpper(string(segment)))]
	if !ok {
		return []domain.Symbol{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	exchanges, ok := s.universe[typeKey]
	if !ok {
		return []domain.Symbol{}
	}

	for name, symbols := range exchanges {
		if strings.EqualFold(name, exchange) {
			out := make([]domain.Symbol, len(symbols))
			copy(out, symbols)
			return out
		}
	}
	return []domain.Symbol{}
}

// Replace installs a previously persisted snapshot. The fetch timestamp is
// not restored, so the next Fetch always goes to the network.
func (s *SymbolStore) Replace(universe domain.SymbolUniverse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.universe = universe
}

// Universe returns the cached universe for persistence
func (s *SymbolStore) Universe() domain.SymbolUniverse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.universe
}

// State returns the current loading/error flags
func (s *SymbolStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Loading: s.loading, LastError: s.lastError}
}

func (s *SymbolStore) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}
