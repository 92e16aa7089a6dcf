package connections

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
)

type fakeCredBackend struct {
	creds       []domain.Credential
	created     *domain.Credential
	createErr   error
	listErr     error
	deleteErr   error
	verifyValid bool

	createCalls int
	lastInput   backend.CredentialInput
	lastVerify  backend.VerifyKeysInput
}

func (f *fakeCredBackend) CreateCredential(_ context.Context, input backend.CredentialInput) (*domain.Credential, error) {
	f.createCalls++
	f.lastInput = input
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeCredBackend) ListCredentials(_ context.Context, _ string) ([]domain.Credential, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.creds, nil
}

func (f *fakeCredBackend) UpdateCredential(_ context.Context, id string, input backend.CredentialInput) (*domain.Credential, error) {
	f.lastInput = input
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *f.created
	out.ID = id
	return &out, nil
}

func (f *fakeCredBackend) DeleteCredential(_ context.Context, _ string) error {
	return f.deleteErr
}

func (f *fakeCredBackend) VerifyKeys(_ context.Context, input backend.VerifyKeysInput) (bool, error) {
	f.lastVerify = input
	return f.verifyValid, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func userFunc(id string) CurrentUserFunc {
	return func() string { return id }
}

func TestFetchRequiresSession(t *testing.T) {
	store := NewStore(&fakeCredBackend{}, userFunc(""), testLogger())

	err := store.Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestFetchReplacesList(t *testing.T) {
	fake := &fakeCredBackend{creds: []domain.Credential{
		{ID: "c-1", Exchange: "BINANCE", APIKeyMasked: "****abcd"},
	}}
	store := NewStore(fake, userFunc("u-1"), testLogger())

	require.NoError(t, store.Fetch(context.Background()))
	creds := store.Credentials()
	require.Len(t, creds, 1)
	assert.Equal(t, "c-1", creds[0].ID)
}

func TestFetchFailureEmptiesList(t *testing.T) {
	fake := &fakeCredBackend{creds: []domain.Credential{{ID: "c-1"}}}
	store := NewStore(fake, userFunc("u-1"), testLogger())
	require.NoError(t, store.Fetch(context.Background()))

	fake.listErr = errors.New("backend down")
	require.Error(t, store.Fetch(context.Background()))

	assert.Empty(t, store.Credentials())
	assert.Equal(t, "backend down", store.State().LastError)
}

func TestCreateValidatesInput(t *testing.T) {
	fake := &fakeCredBackend{}
	store := NewStore(fake, userFunc("u-1"), testLogger())

	cases := []backend.CredentialInput{
		{APIKey: "k", APISecret: "s"},         // missing exchange
		{Exchange: "BINANCE", APISecret: "s"}, // missing key
		{Exchange: "BINANCE", APIKey: "k"},    // missing secret
	}
	for _, input := range cases {
		_, err := store.Create(context.Background(), input)
		assert.Error(t, err)
	}
	assert.Zero(t, fake.createCalls)
}

func TestCreateAppendsMaskedEntity(t *testing.T) {
	fake := &fakeCredBackend{created: &domain.Credential{
		ID:           "c-9",
		Exchange:     "BINANCE",
		APIKeyMasked: "************abcd",
		SecretMasked: "************wxyz",
	}}
	store := NewStore(fake, userFunc("u-1"), testLogger())

	cred, err := store.Create(context.Background(), backend.CredentialInput{
		Exchange:  "binance",
		APIKey:    "raw-key-value",
		APISecret: "raw-secret-value",
	})
	require.NoError(t, err)
	assert.Equal(t, "BINANCE", fake.lastInput.Exchange, "exchange should be uppercased on the wire")
	assert.Equal(t, "c-9", cred.ID)

	creds := store.Credentials()
	require.Len(t, creds, 1)
	assert.Contains(t, creds[0].APIKeyMasked, "*")
	assert.Contains(t, creds[0].SecretMasked, "*")
}

func TestCreateMasksLeakedRawValues(t *testing.T) {
	// If the backend echoes raw values the store must still mask them
	fake := &fakeCredBackend{created: &domain.Credential{
		ID:           "c-9",
		Exchange:     "BINANCE",
		APIKeyMasked: "raw-key-value",
		SecretMasked: "raw-secret-value",
	}}
	store := NewStore(fake, userFunc("u-1"), testLogger())

	cred, err := store.Create(context.Background(), backend.CredentialInput{
		Exchange:  "BINANCE",
		APIKey:    "raw-key-value",
		APISecret: "raw-secret-value",
	})
	require.NoError(t, err)
	assert.Equal(t, "*********alue", cred.APIKeyMasked)
	assert.NotContains(t, cred.SecretMasked, "raw-secret")
}

func TestDeleteRemovesEntry(t *testing.T) {
	fake := &fakeCredBackend{creds: []domain.Credential{{ID: "c-1"}, {ID: "c-2"}}}
	store := NewStore(fake, userFunc("u-1"), testLogger())
	require.NoError(t, store.Fetch(context.Background()))

	require.NoError(t, store.Delete(context.Background(), "c-1"))

	creds := store.Credentials()
	require.Len(t, creds, 1)
	assert.Equal(t, "c-2", creds[0].ID)
}

func TestDeleteFailureKeepsList(t *testing.T) {
	fake := &fakeCredBackend{
		creds:     []domain.Credential{{ID: "c-1"}},
		deleteErr: errors.New("conflict"),
	}
	store := NewStore(fake, userFunc("u-1"), testLogger())
	require.NoError(t, store.Fetch(context.Background()))

	require.Error(t, store.Delete(context.Background(), "c-1"))
	assert.Len(t, store.Credentials(), 1)
}

func TestVerifyKeysUppercasesExchange(t *testing.T) {
	fake := &fakeCredBackend{verifyValid: true}
	store := NewStore(fake, userFunc("u-1"), testLogger())

	valid, err := store.VerifyKeys(context.Background(), backend.VerifyKeysInput{
		Exchange:  "kucoin",
		APIKey:    "k",
		APISecret: "s",
	})
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "KUCOIN", fake.lastVerify.Exchange)
}
