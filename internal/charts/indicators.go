// Package charts maintains recent price series per symbol and derives
// the indicator overlays the dashboard charts render (SMA, RSI, summary
// statistics). Live prices arrive over the websocket stream.
package charts

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// SMA returns the simple moving average series for the given period.
// Leading values without enough history are NaN, as the chart skips them.
func SMA(closes []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, fmt.Errorf("sma period must be at least 2, got %d", period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("sma needs %d closes, have %d", period, len(closes))
	}
	return talib.Sma(closes, period), nil
}

// RSI returns the relative strength index series for the given period
func RSI(closes []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, fmt.Errorf("rsi period must be at least 2, got %d", period)
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("rsi needs %d closes, have %d", period+1, len(closes))
	}
	return talib.Rsi(closes, period), nil
}

// LastValid returns the most recent non-NaN value of an indicator
// series, or nil when the series has none.
func LastValid(series []float64) *float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			v := series[i]
			return &v
		}
	}
	return nil
}

// Returns converts prices to simple percentage returns
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			out[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return out
}

// Summary holds descriptive statistics for a price series
type Summary struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Volatility float64 `json:"volatility"`
}

// Summarize computes descriptive statistics for a price series.
// Volatility is the stddev of simple returns annualized over 365 days,
// crypto markets not having trading holidays.
func Summarize(prices []float64) (Summary, error) {
	if len(prices) < 2 {
		return Summary{}, fmt.Errorf("summary needs at least 2 prices, have %d", len(prices))
	}

	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	returns := Returns(prices)

	return Summary{
		Mean:       stat.Mean(prices, nil),
		StdDev:     stat.StdDev(prices, nil),
		Min:        min,
		Max:        max,
		Volatility: stat.StdDev(returns, nil) * math.Sqrt(365),
	}, nil
}
