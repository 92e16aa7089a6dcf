package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
	"github.com/tradedeck/tradedeck/internal/modules/session"
)

type fakeAuthBackend struct {
	loginErr error
	token    string
}

func (f *fakeAuthBackend) Login(ctx context.Context, input backend.LoginInput) (*backend.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &backend.Session{
		Token: "tok-1",
		User:  domain.User{ID: "u1", Name: "Ada", Email: input.Email},
	}, nil
}

func (f *fakeAuthBackend) Signup(ctx context.Context, input backend.SignupInput) (*backend.Session, error) {
	return &backend.Session{
		Token: "tok-2",
		User:  domain.User{ID: "u2", Name: input.Name, Email: input.Email},
	}, nil
}

func (f *fakeAuthBackend) CurrentUser(ctx context.Context) (*domain.User, error) {
	return &domain.User{ID: "u1"}, nil
}

func (f *fakeAuthBackend) UpdateProfile(ctx context.Context, input backend.ProfileUpdate) (*domain.User, error) {
	return &domain.User{ID: "u1", Name: *input.Name}, nil
}

func (f *fakeAuthBackend) SetToken(token string) { f.token = token }

type memoryTokens struct {
	token string
}

func (m *memoryTokens) SaveToken(token string) error { m.token = token; return nil }
func (m *memoryTokens) LoadToken() (string, error)   { return m.token, nil }
func (m *memoryTokens) DeleteToken() error           { m.token = ""; return nil }

// decodeData unwraps the response envelope and unmarshals its payload.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data)
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func newAuthRouter(fake *fakeAuthBackend, tokens *memoryTokens) (*chi.Mux, *session.Store) {
	store := session.NewStore(fake, tokens, zerolog.Nop())
	handler := NewHandler(store, zerolog.Nop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func TestHandleLogin(t *testing.T) {
	t.Run("establishes the session and persists the token", func(t *testing.T) {
		fake := &fakeAuthBackend{}
		tokens := &memoryTokens{}
		router, store := newAuthRouter(fake, tokens)

		body, _ := json.Marshal(map[string]string{"email": "ada@example.com", "password": "hunter2"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)

		var user domain.User
		decodeData(t, rec, &user)
		assert.Equal(t, "u1", user.ID)

		assert.True(t, store.SignedIn())
		assert.Equal(t, "tok-1", tokens.token)
		assert.Equal(t, "tok-1", fake.token)
	})

	t.Run("bad credentials pass through as 401", func(t *testing.T) {
		fake := &fakeAuthBackend{loginErr: &backend.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}}
		router, store := newAuthRouter(fake, &memoryTokens{})

		body, _ := json.Marshal(map[string]string{"email": "ada@example.com", "password": "wrong"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
		assert.False(t, store.SignedIn())
	})
}

func TestHandleMe(t *testing.T) {
	t.Run("signed out", func(t *testing.T) {
		router, _ := newAuthRouter(&fakeAuthBackend{}, &memoryTokens{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("signed in", func(t *testing.T) {
		router, store := newAuthRouter(&fakeAuthBackend{}, &memoryTokens{})

		_, err := store.Login(context.Background(), "ada@example.com", "hunter2")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var user domain.User
		decodeData(t, rec, &user)
		assert.Equal(t, "Ada", user.Name)
	})
}

func TestHandleLogout(t *testing.T) {
	tokens := &memoryTokens{}
	router, store := newAuthRouter(&fakeAuthBackend{}, tokens)

	_, err := store.Login(context.Background(), "ada@example.com", "hunter2")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, store.SignedIn())
	assert.Empty(t, tokens.token)
}

func TestHandleUpdateProfile(t *testing.T) {
	t.Run("signed out returns 401", func(t *testing.T) {
		router, _ := newAuthRouter(&fakeAuthBackend{}, &memoryTokens{})

		body, _ := json.Marshal(map[string]string{"name": "Grace"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/auth/profile", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("signed in applies the update", func(t *testing.T) {
		router, store := newAuthRouter(&fakeAuthBackend{}, &memoryTokens{})

		_, err := store.Login(context.Background(), "ada@example.com", "hunter2")
		require.NoError(t, err)

		body, _ := json.Marshal(map[string]string{"name": "Grace"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/auth/profile", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)

		var user domain.User
		decodeData(t, rec, &user)
		assert.Equal(t, "Grace", user.Name)
	})
}
