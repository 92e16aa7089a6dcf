package markets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedeck/tradedeck/internal/domain"
)

type fakeSymbolClient struct {
	universe domain.SymbolUniverse
	failWith error
	calls    int
}

func (f *fakeSymbolClient) SymbolPairs(ctx context.Context) (domain.SymbolUniverse, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.universe, nil
}

type fakeBalanceClient struct {
	balances []domain.Balance
	failWith error

	gotExchange string
	gotSegment  domain.Segment
}

func (f *fakeBalanceClient) Balances(ctx context.Context, exchange string, segment domain.Segment) ([]domain.Balance, error) {
	f.gotExchange = exchange
	f.gotSegment = segment
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.balances, nil
}

func disabledLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func testUniverse() domain.SymbolUniverse {
	return domain.SymbolUniverse{
		"CRYPTO_SPOT": {
			"BINANCE": {
				{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"},
				{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT"},
			},
			"KUCOIN": {
				{Symbol: "BTC-USDT", BaseAsset: "BTC", QuoteAsset: "USDT"},
			},
		},
		"CRYPTO_FUTURES": {
			"BINANCE": {
				{Symbol: "BTCUSDT-PERP", BaseAsset: "BTC", QuoteAsset: "USDT"},
			},
		},
	}
}

func TestSymbolsByExchangeSegmentMapping(t *testing.T) {
	fc := &fakeSymbolClient{universe: testUniverse()}
	store := NewSymbolStore(fc, disabledLogger())
	require.NoError(t, store.Fetch(context.Background()))

	spot := store.SymbolsByExchange("BINANCE", domain.SegmentSpot)
	assert.Len(t, spot, 2)

	futures := store.SymbolsByExchange("BINANCE", domain.SegmentFutures)
	require.Len(t, futures, 1)
	assert.Equal(t, "BTCUSDT-PERP", futures[0].Symbol)
}

func TestSymbolsByExchangeCaseInsensitive(t *testing.T) {
	fc := &fakeSymbolClient{universe: testUniverse()}
	store := NewSymbolStore(fc, disabledLogger())
	require.NoError(t, store.Fetch(context.Background()))

	assert.Len(t, store.SymbolsByExchange("binance", domain.SegmentSpot), 2)
	assert.Len(t, store.SymbolsByExchange("KuCoin", domain.SegmentSpot), 1)
}

func TestSymbolsByExchangeMissReturnsEmpty(t *testing.T) {
	fc := &fakeSymbolClient{universe: testUniverse()}
	store := NewSymbolStore(fc, disabledLogger())
	require.NoError(t, store.Fetch(context.Background()))

	assert.Empty(t, store.SymbolsByExchange("BYBIT", domain.SegmentSpot))
	assert.Empty(t, store.SymbolsByExchange("BINANCE", domain.SegmentMargin))
	assert.Empty(t, store.SymbolsByExchange("BINANCE", domain.Segment("OPTIONS")))
	assert.NotNil(t, store.SymbolsByExchange("BYBIT", domain.SegmentSpot))
}

func TestSymbolsByExchangeEmptyBeforeFetch(t *testing.T) {
	store := NewSymbolStore(&fakeSymbolClient{}, disabledLogger())
	assert.Empty(t, store.SymbolsByExchange("BINANCE", domain.SegmentSpot))
}

func TestSymbolFetchHonoursTTL(t *testing.T) {
	fc := &fakeSymbolClient{universe: testUniverse()}
	store := NewSymbolStore(fc, disabledLogger())

	require.NoError(t, store.Fetch(context.Background()))
	require.NoError(t, store.Fetch(context.Background()))
	require.NoError(t, store.Fetch(context.Background()))

	assert.Equal(t, 1, fc.calls, "fetches inside the TTL window must not hit the network")
	assert.Len(t, store.SymbolsByExchange("BINANCE", domain.SegmentSpot), 2)
}

func TestSymbolFetchRefreshesAfterTTL(t *testing.T) {
	fc := &fakeSymbolClient{universe: testUniverse()}
	store := NewSymbolStore(fc, disabledLogger())
	require.NoError(t, store.Fetch(context.Background()))

	// Age the cache past the TTL window
	store.mu.Lock()
	store.lastFetch = time.Now().Add(-6 * time.Minute)
	store.mu.Unlock()

	require.NoError(t, store.Fetch(context.Background()))
	assert.Equal(t, 2, fc.calls)
}

func TestSymbolFetchFailureRecordsError(t *testing.T) {
	fc := &fakeSymbolClient{failWith: errors.New("upstream down")}
	store := NewSymbolStore(fc, disabledLogger())

	err := store.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, "upstream down", store.State().LastError)
}

func TestBalanceFetchUppercasesAndReplaces(t *testing.T) {
	fc := &fakeBalanceClient{balances: []domain.Balance{
		{Asset: "USDT", Free: 120.5, Locked: 10, Total: 130.5},
		{Asset: "BTC", Free: 0.5, Total: 0.5},
	}}
	store := NewBalanceStore(fc, disabledLogger())

	store.Fetch(context.Background(), "binance", "spot")

	assert.Equal(t, "BINANCE", fc.gotExchange)
	assert.Equal(t, domain.SegmentSpot, fc.gotSegment)

	balances, exchange, segment := store.Balances()
	assert.Len(t, balances, 2)
	assert.Equal(t, "BINANCE", exchange)
	assert.Equal(t, domain.SegmentSpot, segment)
}

func TestBalanceByAssetCaseInsensitive(t *testing.T) {
	fc := &fakeBalanceClient{balances: []domain.Balance{
		{Asset: "USDT", Free: 100, Total: 100},
	}}
	store := NewBalanceStore(fc, disabledLogger())
	store.Fetch(context.Background(), "BINANCE", domain.SegmentSpot)

	lower := store.BalanceByAsset("usdt")
	upper := store.BalanceByAsset("USDT")
	require.NotNil(t, lower)
	require.NotNil(t, upper)
	assert.Equal(t, *lower, *upper)

	assert.Nil(t, store.BalanceByAsset("ETH"))
}

func TestBalanceFetchFailureClearsListAndSwallowsError(t *testing.T) {
	fc := &fakeBalanceClient{balances: []domain.Balance{{Asset: "USDT", Free: 1}}}
	store := NewBalanceStore(fc, disabledLogger())
	store.Fetch(context.Background(), "BINANCE", domain.SegmentSpot)
	balances, _, _ := store.Balances()
	require.Len(t, balances, 1)

	fc.failWith = errors.New("invalid credentials")
	store.Fetch(context.Background(), "BINANCE", domain.SegmentSpot)

	balances, _, _ = store.Balances()
	assert.Empty(t, balances)
	assert.Equal(t, "invalid credentials", store.State().LastError)
	assert.Nil(t, store.BalanceByAsset("USDT"))
}
