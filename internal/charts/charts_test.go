package charts

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	sma, err := SMA(closes, 3)
	require.NoError(t, err)
	require.Len(t, sma, 5)

	// First period-1 values are NaN
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 4.0, sma[4], 1e-9)
}

func TestSMAInsufficientData(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 3)
	require.Error(t, err)

	_, err = SMA([]float64{1, 2, 3}, 1)
	require.Error(t, err)
}

func TestRSIBounds(t *testing.T) {
	// Monotonically rising series drives RSI toward 100
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi, err := RSI(closes, 14)
	require.NoError(t, err)

	last := LastValid(rsi)
	require.NotNil(t, last)
	assert.Greater(t, *last, 90.0)
	assert.LessOrEqual(t, *last, 100.0)
}

func TestLastValidAllNaN(t *testing.T) {
	assert.Nil(t, LastValid([]float64{math.NaN(), math.NaN()}))
	assert.Nil(t, LastValid(nil))
}

func TestReturns(t *testing.T) {
	returns := Returns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	assert.Empty(t, Returns([]float64{100}))
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize([]float64{100, 102, 101, 103})
	require.NoError(t, err)

	assert.InDelta(t, 101.5, summary.Mean, 1e-9)
	assert.Equal(t, 100.0, summary.Min)
	assert.Equal(t, 103.0, summary.Max)
	assert.Greater(t, summary.Volatility, 0.0)

	_, err = Summarize([]float64{100})
	require.Error(t, err)
}

func TestSeriesStoreAppendAndEvict(t *testing.T) {
	store := NewSeriesStore(testLogger())
	store.capacity = 3

	now := time.Now()
	for i := 0; i < 5; i++ {
		store.Append("btcusdt", float64(100+i), now.Add(time.Duration(i)*time.Minute))
	}

	closes := store.Closes("BTCUSDT")
	require.Len(t, closes, 3, "window is bounded")
	assert.Equal(t, []float64{102, 103, 104}, closes)

	last := store.LastPrice("btcusdt")
	require.NotNil(t, last)
	assert.Equal(t, 104.0, last.Price)
}

func TestSeriesStoreUnknownSymbol(t *testing.T) {
	store := NewSeriesStore(testLogger())

	assert.Empty(t, store.Closes("NOPE"))
	assert.Empty(t, store.Points("NOPE"))
	assert.Nil(t, store.LastPrice("NOPE"))
}

func TestPriceStreamHandleMessage(t *testing.T) {
	series := NewSeriesStore(testLogger())
	ps := NewPriceStream("ws://example.invalid/stream", series, testLogger())

	err := ps.handleMessage([]byte(`["prices", {"symbol": "ETHUSDT", "price": 2501.5, "ts": 1700000000}]`))
	require.NoError(t, err)

	last := series.LastPrice("ETHUSDT")
	require.NotNil(t, last)
	assert.Equal(t, 2501.5, last.Price)
	assert.Equal(t, int64(1700000000), last.Time.Unix())
}

func TestPriceStreamIgnoresOtherChannels(t *testing.T) {
	series := NewSeriesStore(testLogger())
	ps := NewPriceStream("ws://example.invalid/stream", series, testLogger())

	require.NoError(t, ps.handleMessage([]byte(`["orders", {"id": "x"}]`)))
	assert.Empty(t, series.Symbols())
}

func TestPriceStreamRejectsMalformed(t *testing.T) {
	series := NewSeriesStore(testLogger())
	ps := NewPriceStream("ws://example.invalid/stream", series, testLogger())

	assert.Error(t, ps.handleMessage([]byte(`{"not": "an array"}`)))
	assert.Error(t, ps.handleMessage([]byte(`["prices"]`)))
	assert.Error(t, ps.handleMessage([]byte(`["prices", {"price": 10}]`)))
}

func TestBackoffCaps(t *testing.T) {
	assert.Equal(t, baseReconnectDelay, backoff(1))
	assert.Equal(t, 2*baseReconnectDelay, backoff(2))
	assert.Equal(t, maxReconnectDelay, backoff(50))
}
