// Package connections manages brokerage connections (exchange API
// credentials). Raw keys and secrets pass through exactly once, in the
// create request; only masked forms are ever cached or displayed.
package connections

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
)

// BackendClient is the slice of the backend API the connections store needs
type BackendClient interface {
	CreateCredential(ctx context.Context, input backend.CredentialInput) (*domain.Credential, error)
	ListCredentials(ctx context.Context, userID string) ([]domain.Credential, error)
	UpdateCredential(ctx context.Context, id string, input backend.CredentialInput) (*domain.Credential, error)
	DeleteCredential(ctx context.Context, id string) error
	VerifyKeys(ctx context.Context, input backend.VerifyKeysInput) (bool, error)
}

// CurrentUserFunc reports the id of the signed-in user, or empty
type CurrentUserFunc func() string

// State is a snapshot of the store's operational flags
type State struct {
	Loading   bool   `json:"loading"`
	LastError string `json:"lastError,omitempty"`
}

// Store caches the user's brokerage connections
type Store struct {
	client      BackendClient
	currentUser CurrentUserFunc
	log         zerolog.Logger

	mu          sync.RWMutex
	credentials []domain.Credential
	loading     bool
	lastError   string
}

// NewStore creates a new connections store
func NewStore(client BackendClient, currentUser CurrentUserFunc, log zerolog.Logger) *Store {
	return &Store{
		client:      client,
		currentUser: currentUser,
		log:         log.With().Str("store", "connections").Logger(),
	}
}

// Fetch replaces the cached connection list for the signed-in user
func (s *Store) Fetch(ctx context.Context) error {
	userID := s.currentUser()
	if userID == "" {
		return domain.ErrNotAuthenticated
	}

	s.setLoading(true)
	defer s.setLoading(false)

	creds, err := s.client.ListCredentials(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.credentials = nil
		s.lastError = err.Error()
		return err
	}

	s.credentials = creds
	s.lastError = ""
	return nil
}

// Create validates and registers a new connection. The server-returned
// entity (already masked) is appended locally; the raw input is not
// retained.
func (s *Store) Create(ctx context.Context, input backend.CredentialInput) (*domain.Credential, error) {
	if strings.TrimSpace(input.Exchange) == "" {
		return nil, fmt.Errorf("exchange is required")
	}
	if strings.TrimSpace(input.APIKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if strings.TrimSpace(input.APISecret) == "" {
		return nil, fmt.Errorf("API secret is required")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	input.Exchange = strings.ToUpper(input.Exchange)
	cred, err := s.client.CreateCredential(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	// Never trust the backend to have masked; mask defensively if the raw
	// values leaked through.
	cred.APIKeyMasked = ensureMasked(cred.APIKeyMasked)
	cred.SecretMasked = ensureMasked(cred.SecretMasked)

	s.credentials = append(s.credentials, *cred)
	s.lastError = ""
	s.log.Info().Str("id", cred.ID).Str("exchange", cred.Exchange).Msg("Brokerage connection created")
	return cred, nil
}

// Update replaces a connection's credentials and swaps the confirmed
// entity into the cache.
func (s *Store) Update(ctx context.Context, id string, input backend.CredentialInput) (*domain.Credential, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("credential id is required")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	input.Exchange = strings.ToUpper(input.Exchange)
	cred, err := s.client.UpdateCredential(ctx, id, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	cred.APIKeyMasked = ensureMasked(cred.APIKeyMasked)
	cred.SecretMasked = ensureMasked(cred.SecretMasked)

	for i := range s.credentials {
		if s.credentials[i].ID == cred.ID {
			s.credentials[i] = *cred
			break
		}
	}
	s.lastError = ""
	return cred, nil
}

// Delete removes a connection after the backend confirms
func (s *Store) Delete(ctx context.Context, id string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	err := s.client.DeleteCredential(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return err
	}

	kept := s.credentials[:0]
	for _, c := range s.credentials {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.credentials = kept
	s.lastError = ""
	return nil
}

// VerifyKeys asks the backend to validate credentials without storing them
func (s *Store) VerifyKeys(ctx context.Context, input backend.VerifyKeysInput) (bool, error) {
	input.Exchange = strings.ToUpper(input.Exchange)
	return s.client.VerifyKeys(ctx, input)
}

// Replace swaps in a previously persisted connection list. Used when
// restoring cached state on startup.
func (s *Store) Replace(creds []domain.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = creds
}

// Credentials returns a snapshot copy of the cached connections
func (s *Store) Credentials() []domain.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Credential, len(s.credentials))
	copy(out, s.credentials)
	return out
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

// ensureMasked masks a value unless it already looks masked
func ensureMasked(v string) string {
	if v == "" || strings.Contains(v, "*") {
		return v
	}
	return domain.MaskSecret(v)
}
