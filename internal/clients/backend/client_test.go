package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedeck/tradedeck/internal/domain"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestResolvePathStripsDuplicatedPrefix(t *testing.T) {
	c := NewClient("http://localhost:5000/api/v1", testLogger())

	assert.Equal(t, "http://localhost:5000/api/v1/strategy/strategies", c.resolvePath("/strategy/strategies"))
	assert.Equal(t, "http://localhost:5000/api/v1/strategy/strategies", c.resolvePath("/api/v1/strategy/strategies"))
	assert.Equal(t, "http://localhost:5000/api/v1/crypto/user/me", c.resolvePath("crypto/user/me"))
}

func TestDoSetsAuthAndRequestIDHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"ok": true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	c.SetToken("test-token")

	_, err := c.do(context.Background(), http.MethodGet, "/anything", nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestDoWithoutTokenOmitsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	_, err := c.do(context.Background(), http.MethodGet, "/anything", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestDoSurfacesEnvelopeMessageOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "investment amount too small"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	_, err := c.do(context.Background(), http.MethodPost, "/strategy/strategies", map[string]string{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "investment amount too small", apiErr.Error())
}

func TestDoGenericMessageWhenEnvelopeHasNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	_, err := c.do(context.Background(), http.MethodGet, "/x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestStrategiesRejectsEntryWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"name": "no id here"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	_, err := c.Strategies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without id")
}

func TestStrategiesRejectsShapeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// data is an object, not the expected array
		_, _ = w.Write([]byte(`{"data": {"strategies": []}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	_, err := c.Strategies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}

func TestCreateStrategySendsFrequencyPayload(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data": {"id": "st-1", "name": "Growth DCA BTC", "frequency": {"type": "DAILY", "time": "09:30"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	created, err := c.CreateStrategy(context.Background(), StrategyInput{
		Name:             "Growth DCA BTC",
		StrategyType:     "GROWTH_DCA",
		Exchange:         "BINANCE",
		Segment:          domain.SegmentSpot,
		Symbol:           "BTCUSDT",
		InvestmentPerRun: 100,
		InvestmentCap:    1000,
		Frequency:        &domain.Frequency{Type: domain.FrequencyDaily, Time: "09:30"},
	})
	require.NoError(t, err)
	assert.Equal(t, "st-1", created.ID)

	freq, ok := gotBody["frequency"].(map[string]interface{})
	require.True(t, ok, "payload must contain a frequency object")
	assert.Equal(t, "DAILY", freq["type"])
	assert.Equal(t, "09:30", freq["time"])
	assert.NotContains(t, freq, "days")
	assert.NotContains(t, freq, "dates")
	assert.NotContains(t, freq, "intervalHours")
}

func TestBalancesUppercasesExchangeAndSegment(t *testing.T) {
	var gotBody balancesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data": [{"asset": "USDT", "free": 10, "locked": 0, "total": 10}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	balances, err := c.Balances(context.Background(), "binance", "spot")
	require.NoError(t, err)
	require.Len(t, balances, 1)

	assert.Equal(t, "BINANCE", gotBody.Exchange)
	assert.Equal(t, "SPOT", gotBody.Segment)
}

func TestSymbolPairsRejectsEmptySymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"CRYPTO_SPOT": {"BINANCE": [{"symbol": "", "baseAsset": "BTC"}]}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	_, err := c.SymbolPairs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty symbol")
}
