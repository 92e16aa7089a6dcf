// Package handlers provides HTTP handlers for chart data: price
// series, indicator overlays, and summary statistics.
package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/charts"
)

// defaultIndicatorPeriod is used when the request omits ?period=
const defaultIndicatorPeriod = 14

// Handler provides HTTP handlers for chart endpoints
type Handler struct {
	series *charts.SeriesStore
	stream *charts.PriceStream
	log    zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(series *charts.SeriesStore, stream *charts.PriceStream, log zerolog.Logger) *Handler {
	return &Handler{
		series: series,
		stream: stream,
		log:    log.With().Str("handler", "charts").Logger(),
	}
}

// HandleSymbols handles GET /api/charts/symbols
func (h *Handler) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"symbols":   h.series.Symbols(),
		"streaming": h.stream != nil && h.stream.IsConnected(),
	})
}

// HandlePrices handles GET /api/charts/{symbol}/prices
func (h *Handler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"symbol": strings.ToUpper(symbol),
		"prices": h.series.Points(symbol),
		"last":   h.series.LastPrice(symbol),
	})
}

// HandleIndicator handles GET /api/charts/{symbol}/indicator?type=sma&period=14
func (h *Handler) HandleIndicator(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	kind := strings.ToLower(r.URL.Query().Get("type"))

	period := defaultIndicatorPeriod
	if p := r.URL.Query().Get("period"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			http.Error(w, "Invalid period", http.StatusBadRequest)
			return
		}
		period = parsed
	}

	closes := h.series.Closes(symbol)

	var (
		values []float64
		err    error
	)
	switch kind {
	case "sma":
		values, err = charts.SMA(closes, period)
	case "rsi":
		values, err = charts.RSI(closes, period)
	default:
		http.Error(w, "Indicator type must be sma or rsi", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"symbol":    strings.ToUpper(symbol),
		"indicator": kind,
		"period":    period,
		"values":    nullableValues(values),
		"last":      charts.LastValid(values),
	})
}

// nullableValues maps the NaN warmup values talib produces to JSON
// nulls, which encoding/json cannot do for raw float64 slices.
func nullableValues(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			v := values[i]
			out[i] = &v
		}
	}
	return out
}

// HandleSummary handles GET /api/charts/{symbol}/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	summary, err := charts.Summarize(h.series.Closes(symbol))
	if err != nil {
		http.Error(w, "Not enough price data for summary", http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"symbol":  strings.ToUpper(symbol),
		"summary": summary,
	})
}

// writeJSON wraps the payload in the standard response envelope.
func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
