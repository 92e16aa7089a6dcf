package copytrade

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

type fakeCopyBackend struct {
	published     []domain.PublishedStrategy
	subscriptions []domain.Subscription
	failWith      error

	subscribeCalls int
	statusCalls    int
	lastStatus     domain.SubscriptionStatus
}

func (f *fakeCopyBackend) PublishedStrategies(ctx context.Context) ([]domain.PublishedStrategy, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.published, nil
}

func (f *fakeCopyBackend) Subscriptions(ctx context.Context) ([]domain.Subscription, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.subscriptions, nil
}

func (f *fakeCopyBackend) Subscribe(ctx context.Context, input backend.SubscribeInput) (*domain.Subscription, error) {
	f.subscribeCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &domain.Subscription{
		ID:                  "sub-1",
		PublishedStrategyID: input.PublishedStrategyID,
		Exchange:            input.Exchange,
		Multiplier:          input.Multiplier,
		Status:              domain.SubscriptionActive,
	}, nil
}

func (f *fakeCopyBackend) Unsubscribe(ctx context.Context, id string) error {
	return f.failWith
}

func (f *fakeCopyBackend) SetSubscriptionStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	f.statusCalls++
	f.lastStatus = status
	return f.failWith
}

func newCopyStore(fb *fakeCopyBackend, currentUserID string) *Store {
	return NewStore(fb, func() string { return currentUserID }, zerolog.New(nil).Level(zerolog.Disabled))
}

func catalogue() []domain.PublishedStrategy {
	return []domain.PublishedStrategy{
		{ID: "pub-1", UserID: "owner-1", Name: "Momentum BTC", Followers: 12},
		{ID: "pub-2", UserID: "owner-2", Name: "Calm ETH DCA", Followers: 3},
	}
}

func TestSubscribeAppendsServerEntity(t *testing.T) {
	fb := &fakeCopyBackend{published: catalogue()}
	store := newCopyStore(fb, "viewer-1")
	require.NoError(t, store.Fetch(context.Background()))

	sub, err := store.Subscribe(context.Background(), "pub-1", "BINANCE", 2.5)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", sub.ID, "server-assigned id")
	assert.Equal(t, 2.5, sub.Multiplier)

	subs := store.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, domain.SubscriptionActive, subs[0].Status)
}

func TestSubscribeOwnStrategyRefusedWithoutNetworkCall(t *testing.T) {
	fb := &fakeCopyBackend{published: catalogue()}
	store := newCopyStore(fb, "owner-1")
	require.NoError(t, store.Fetch(context.Background()))

	_, err := store.Subscribe(context.Background(), "pub-1", "BINANCE", 2)
	assert.ErrorIs(t, err, domain.ErrOwnStrategy)
	assert.Zero(t, fb.subscribeCalls, "owner guard must short-circuit before the network")
	assert.Empty(t, store.Subscriptions())
}

func TestSubscribeValidatesMultiplierAndExchange(t *testing.T) {
	fb := &fakeCopyBackend{published: catalogue()}
	store := newCopyStore(fb, "viewer-1")
	require.NoError(t, store.Fetch(context.Background()))

	_, err := store.Subscribe(context.Background(), "pub-1", "BINANCE", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiplier")

	_, err = store.Subscribe(context.Background(), "pub-1", "BYBIT", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available for copy trading")

	_, err = store.Subscribe(context.Background(), "missing", "BINANCE", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Zero(t, fb.subscribeCalls)
}

func TestSubscribeAcceptsLowercaseAllowListedExchange(t *testing.T) {
	fb := &fakeCopyBackend{published: catalogue()}
	store := newCopyStore(fb, "viewer-1")
	require.NoError(t, store.Fetch(context.Background()))

	sub, err := store.Subscribe(context.Background(), "pub-2", "kucoin", 1)
	require.NoError(t, err)
	assert.Equal(t, "KUCOIN", sub.Exchange)
}

func TestUnsubscribeRemovesBySubscriptionID(t *testing.T) {
	fb := &fakeCopyBackend{
		published:     catalogue(),
		subscriptions: []domain.Subscription{{ID: "sub-a"}, {ID: "sub-b"}},
	}
	store := newCopyStore(fb, "viewer-1")
	require.NoError(t, store.Fetch(context.Background()))

	require.NoError(t, store.Unsubscribe(context.Background(), "sub-a"))

	subs := store.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, "sub-b", subs[0].ID)
}

func TestPauseResumeSwapStatusInPlace(t *testing.T) {
	fb := &fakeCopyBackend{
		published:     catalogue(),
		subscriptions: []domain.Subscription{{ID: "sub-a", Status: domain.SubscriptionActive}},
	}
	store := newCopyStore(fb, "viewer-1")
	require.NoError(t, store.Fetch(context.Background()))

	require.NoError(t, store.Pause(context.Background(), "sub-a"))
	assert.Equal(t, domain.SubscriptionPaused, store.Subscriptions()[0].Status)
	assert.Equal(t, domain.SubscriptionPaused, fb.lastStatus)

	require.NoError(t, store.Resume(context.Background(), "sub-a"))
	assert.Equal(t, domain.SubscriptionActive, store.Subscriptions()[0].Status)
	assert.Equal(t, 2, fb.statusCalls)
}

func TestPauseFailureLeavesStatusUnchanged(t *testing.T) {
	fb := &fakeCopyBackend{
		published:     catalogue(),
		subscriptions: []domain.Subscription{{ID: "sub-a", Status: domain.SubscriptionActive}},
	}
	store := newCopyStore(fb, "viewer-1")
	require.NoError(t, store.Fetch(context.Background()))

	fb.failWith = errors.New("subscription busy")
	err := store.Pause(context.Background(), "sub-a")
	require.Error(t, err)
	assert.Equal(t, domain.SubscriptionActive, store.Subscriptions()[0].Status)
	assert.Equal(t, "subscription busy", store.State().LastError)
}

func TestFetchFailureEmptiesCatalogue(t *testing.T) {
	fb := &fakeCopyBackend{published: catalogue()}
	store := newCopyStore(fb, "viewer-1")
	require.NoError(t, store.Fetch(context.Background()))
	require.Len(t, store.Published(), 2)

	fb.failWith = errors.New("backend unavailable")
	require.Error(t, store.Fetch(context.Background()))
	assert.Empty(t, store.Published())
	assert.Equal(t, "backend unavailable", store.State().LastError)
}
