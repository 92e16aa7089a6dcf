package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
)

type fakeSessionBackend struct {
	session  *backend.Session
	user     *domain.User
	failWith error
	token    string
}

func (f *fakeSessionBackend) Login(ctx context.Context, input backend.LoginInput) (*backend.Session, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.session, nil
}

func (f *fakeSessionBackend) Signup(ctx context.Context, input backend.SignupInput) (*backend.Session, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.session, nil
}

func (f *fakeSessionBackend) CurrentUser(ctx context.Context) (*domain.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.user, nil
}

func (f *fakeSessionBackend) UpdateProfile(ctx context.Context, input backend.ProfileUpdate) (*domain.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u := *f.user
	if input.Name != nil {
		u.Name = *input.Name
	}
	return &u, nil
}

func (f *fakeSessionBackend) SetToken(token string) { f.token = token }

type memoryTokenStore struct {
	token   string
	saveErr error
}

func (m *memoryTokenStore) SaveToken(token string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	return nil
}

func (m *memoryTokenStore) LoadToken() (string, error) { return m.token, nil }
func (m *memoryTokenStore) DeleteToken() error         { m.token = ""; return nil }

func newSessionStore(fb *fakeSessionBackend, tokens *memoryTokenStore) *Store {
	return NewStore(fb, tokens, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestLoginInstallsAndPersistsSession(t *testing.T) {
	fb := &fakeSessionBackend{session: &backend.Session{
		Token: "tok-1",
		User:  domain.User{ID: "u-1", Email: "a@b.c"},
	}}
	tokens := &memoryTokenStore{}
	store := newSessionStore(fb, tokens)

	user, err := store.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "tok-1", fb.token, "token handed to the backend client")
	assert.Equal(t, "tok-1", tokens.token, "token persisted")
	assert.True(t, store.SignedIn())
	assert.Equal(t, "u-1", store.CurrentUserID())
}

func TestLoginFailureLeavesSignedOut(t *testing.T) {
	fb := &fakeSessionBackend{failWith: errors.New("bad credentials")}
	store := newSessionStore(fb, &memoryTokenStore{})

	_, err := store.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.False(t, store.SignedIn())
	assert.Empty(t, store.CurrentUserID())
}

func TestRestoreValidatesPersistedToken(t *testing.T) {
	fb := &fakeSessionBackend{user: &domain.User{ID: "u-1"}}
	tokens := &memoryTokenStore{token: "tok-old"}
	store := newSessionStore(fb, tokens)

	require.NoError(t, store.Restore(context.Background()))
	assert.True(t, store.SignedIn())
	assert.Equal(t, "tok-old", fb.token)
}

func TestRestoreDropsRejectedToken(t *testing.T) {
	fb := &fakeSessionBackend{failWith: &backend.APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "token expired",
	}}
	tokens := &memoryTokenStore{token: "tok-stale"}
	store := newSessionStore(fb, tokens)

	require.NoError(t, store.Restore(context.Background()), "a rejected token is not a startup failure")
	assert.False(t, store.SignedIn())
	assert.Empty(t, tokens.token, "stale token removed")
	assert.Empty(t, fb.token, "backend client token cleared")
}

func TestRestoreKeepsTokenWhenBackendUnreachable(t *testing.T) {
	fb := &fakeSessionBackend{failWith: errors.New("dial tcp: connection refused")}
	tokens := &memoryTokenStore{token: "tok-valid"}
	store := newSessionStore(fb, tokens)

	err := store.Restore(context.Background())
	require.Error(t, err)
	assert.False(t, store.SignedIn())
	assert.Equal(t, "tok-valid", tokens.token, "token survives a transport failure")

	loaded, loadErr := tokens.LoadToken()
	require.NoError(t, loadErr)
	assert.Equal(t, "tok-valid", loaded)
	assert.Empty(t, fb.token, "backend client token cleared until validated")
}

func TestRestoreWithoutTokenIsNoop(t *testing.T) {
	fb := &fakeSessionBackend{}
	store := newSessionStore(fb, &memoryTokenStore{})
	require.NoError(t, store.Restore(context.Background()))
	assert.False(t, store.SignedIn())
}

func TestLogoutClearsEverything(t *testing.T) {
	fb := &fakeSessionBackend{session: &backend.Session{Token: "tok-1", User: domain.User{ID: "u-1"}}}
	tokens := &memoryTokenStore{}
	store := newSessionStore(fb, tokens)
	_, err := store.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	require.NoError(t, store.Logout())
	assert.False(t, store.SignedIn())
	assert.Empty(t, tokens.token)
	assert.Empty(t, fb.token)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	fb := &fakeSessionBackend{user: &domain.User{ID: "u-1", Name: "Old"}}
	store := newSessionStore(fb, &memoryTokenStore{})

	_, err := store.UpdateProfile(context.Background(), backend.ProfileUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestUpdateProfileMirrorsConfirmedRecord(t *testing.T) {
	fb := &fakeSessionBackend{
		session: &backend.Session{Token: "tok-1", User: domain.User{ID: "u-1", Name: "Old"}},
		user:    &domain.User{ID: "u-1", Name: "Old"},
	}
	store := newSessionStore(fb, &memoryTokenStore{})
	_, err := store.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	newName := "New"
	user, err := store.UpdateProfile(context.Background(), backend.ProfileUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New", user.Name)
	assert.Equal(t, "New", store.CurrentUser().Name)
}
