// Package session holds the authenticated session: the bearer token and
// the current user record.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
)

// BackendClient is the slice of the backend API the session store needs.
// SetToken installs the bearer token used by every authenticated call.
type BackendClient interface {
	Login(ctx context.Context, input backend.LoginInput) (*backend.Session, error)
	Signup(ctx context.Context, input backend.SignupInput) (*backend.Session, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, input backend.ProfileUpdate) (*domain.User, error)
	SetToken(token string)
}

// TokenStore persists the session token across restarts
type TokenStore interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	DeleteToken() error
}

// Store holds the current session
type Store struct {
	client BackendClient
	tokens TokenStore
	log    zerolog.Logger

	mu    sync.RWMutex
	token string
	user  *domain.User
}

// NewStore creates a new session store
func NewStore(client BackendClient, tokens TokenStore, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		tokens: tokens,
		log:    log.With().Str("store", "session").Logger(),
	}
}

// Login authenticates and installs the session. The token is handed to
// the backend client and persisted for the next start.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.User, error) {
	sess, err := s.client.Login(ctx, backend.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.install(sess)
}

// Signup creates an account and installs the resulting session
func (s *Store) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	sess, err := s.client.Signup(ctx, backend.SignupInput{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.install(sess)
}

func (s *Store) install(sess *backend.Session) (*domain.User, error) {
	s.client.SetToken(sess.Token)

	s.mu.Lock()
	s.token = sess.Token
	user := sess.User
	s.user = &user
	s.mu.Unlock()

	if err := s.tokens.SaveToken(sess.Token); err != nil {
		// The session still works for this process; only persistence
		// across restarts is lost.
		s.log.Warn().Err(err).Msg("Failed to persist session token")
	}

	s.log.Info().Str("user_id", sess.User.ID).Msg("Session established")
	return &user, nil
}

// Restore loads a persisted token and validates it against the backend.
// A missing or rejected token leaves the store signed out without error.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.tokens.LoadToken()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	s.client.SetToken(token)
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.client.SetToken("")

		// Only an explicit backend rejection proves the token is stale.
		// A transport failure keeps it so a later restore can retry.
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			if delErr := s.tokens.DeleteToken(); delErr != nil {
				s.log.Warn().Err(delErr).Msg("Failed to delete stale session token")
			}
			s.log.Info().Msg("Persisted session token rejected, starting signed out")
			return nil
		}

		s.log.Warn().Err(err).Msg("Session restore unreachable, keeping persisted token")
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	s.log.Info().Str("user_id", user.ID).Msg("Session restored")
	return nil
}

// Logout clears the session locally and removes the persisted token
func (s *Store) Logout() error {
	s.client.SetToken("")

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	return s.tokens.DeleteToken()
}

// UpdateProfile updates the user's profile and mirrors the confirmed
// record locally.
func (s *Store) UpdateProfile(ctx context.Context, input backend.ProfileUpdate) (*domain.User, error) {
	s.mu.RLock()
	signedIn := s.user != nil
	s.mu.RUnlock()
	if !signedIn {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := s.client.UpdateProfile(ctx, input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// CurrentUser returns the signed-in user, or nil
func (s *Store) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// CurrentUserID returns the signed-in user's id, or empty
func (s *Store) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// SignedIn reports whether a session is active
func (s *Store) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}
