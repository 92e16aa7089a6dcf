// Package copytrade holds the copy-trading catalogue and the current
// user's subscriptions.
package copytrade

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
)

// BackendClient is the slice of the backend API the copy-trade store needs
type BackendClient interface {
	PublishedStrategies(ctx context.Context) ([]domain.PublishedStrategy, error)
	Subscriptions(ctx context.Context) ([]domain.Subscription, error)
	Subscribe(ctx context.Context, input backend.SubscribeInput) (*domain.Subscription, error)
	Unsubscribe(ctx context.Context, id string) error
	SetSubscriptionStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error
}

// CurrentUserFunc reports the id of the signed-in user, or empty when
// there is no session. Injected from the session store.
type CurrentUserFunc func() string

// State is a snapshot of the store's operational flags
type State struct {
	Loading   bool   `json:"loading"`
	LastError string `json:"lastError,omitempty"`
}

// Store caches published strategies and the user's subscriptions
type Store struct {
	client      BackendClient
	currentUser CurrentUserFunc
	log         zerolog.Logger

	mu            sync.RWMutex
	published     []domain.PublishedStrategy
	subscriptions []domain.Subscription
	loading       bool
	lastError     string
}

// NewStore creates a new copy-trade store
func NewStore(client BackendClient, currentUser CurrentUserFunc, log zerolog.Logger) *Store {
	return &Store{
		client:      client,
		currentUser: currentUser,
		log:         log.With().Str("store", "copytrade").Logger(),
	}
}

// Fetch refreshes both the published catalogue and the user's
// subscriptions. Either list failing empties that list and records the
// error.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	published, pubErr := s.client.PublishedStrategies(ctx)
	subs, subErr := s.client.Subscriptions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if pubErr != nil {
		s.published = nil
		s.lastError = pubErr.Error()
		return pubErr
	}
	s.published = published

	if subErr != nil {
		s.subscriptions = nil
		s.lastError = subErr.Error()
		return subErr
	}
	s.subscriptions = subs
	s.lastError = ""
	return nil
}

// Subscribe validates and creates a subscription. The owner guard and the
// multiplier/exchange checks run before any network call; the backend
// performs the authoritative checks again.
func (s *Store) Subscribe(ctx context.Context, publishedID, exchange string, multiplier float64) (*domain.Subscription, error) {
	published, err := s.PublishedByID(publishedID)
	if err != nil {
		return nil, err
	}

	if uid := s.currentUser(); uid != "" && uid == published.UserID {
		return nil, domain.ErrOwnStrategy
	}
	if multiplier <= 0 {
		return nil, fmt.Errorf("multiplier must be greater than zero")
	}
	if !domain.IsCopyTradeExchange(exchange) {
		return nil, fmt.Errorf("exchange %s is not available for copy trading", exchange)
	}

	s.setLoading(true)
	defer s.setLoading(false)

	sub, err := s.client.Subscribe(ctx, backend.SubscribeInput{
		PublishedStrategyID: publishedID,
		Exchange:            strings.ToUpper(exchange),
		Multiplier:          multiplier,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	s.subscriptions = append(s.subscriptions, *sub)
	s.lastError = ""
	s.log.Info().Str("subscription_id", sub.ID).Str("published_id", publishedID).Msg("Subscribed to strategy")
	return sub, nil
}

// Unsubscribe removes a subscription by its identifier after the backend
// confirms.
func (s *Store) Unsubscribe(ctx context.Context, id string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	err := s.client.Unsubscribe(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return err
	}

	kept := s.subscriptions[:0]
	for _, sub := range s.subscriptions {
		if sub.ID != id {
			kept = append(kept, sub)
		}
	}
	s.subscriptions = kept
	s.lastError = ""
	return nil
}

// Pause pauses a subscription; the local effect is an in-place status
// swap, not a refetch.
func (s *Store) Pause(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, domain.SubscriptionPaused)
}

// Resume resumes a paused subscription
func (s *Store) Resume(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, domain.SubscriptionActive)
}

func (s *Store) setStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	err := s.client.SetSubscriptionStatus(ctx, id, status)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return err
	}

	for i := range s.subscriptions {
		if s.subscriptions[i].ID == id {
			s.subscriptions[i].Status = status
			break
		}
	}
	s.lastError = ""
	return nil
}

// Published returns a snapshot copy of the catalogue
func (s *Store) Published() []domain.PublishedStrategy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PublishedStrategy, len(s.published))
	copy(out, s.published)
	return out
}

// PublishedByID returns the catalogue entry with the given id, or
// domain.ErrNotFound.
func (s *Store) PublishedByID(id string) (*domain.PublishedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.published {
		if s.published[i].ID == id {
			p := s.published[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Subscriptions returns a snapshot copy of the user's subscriptions
func (s *Store) Subscriptions() []domain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Subscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

// Replace installs previously persisted snapshots without touching the
// backend. Used at startup by the snapshot loader.
func (s *Store) Replace(published []domain.PublishedStrategy, subscriptions []domain.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = published
	s.subscriptions = subscriptions
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
