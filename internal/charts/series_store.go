package charts

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultCapacity bounds the number of points kept per symbol
const defaultCapacity = 1440

// PricePoint is one observed price for a symbol
type PricePoint struct {
	Price float64   `json:"price"`
	Time  time.Time `json:"time"`
}

// SeriesStore keeps a bounded window of recent prices per symbol.
// The websocket stream appends; chart handlers read.
type SeriesStore struct {
	capacity int
	log      zerolog.Logger

	mu     sync.RWMutex
	series map[string][]PricePoint
}

// NewSeriesStore creates a new price series store
func NewSeriesStore(log zerolog.Logger) *SeriesStore {
	return &SeriesStore{
		capacity: defaultCapacity,
		log:      log.With().Str("store", "price_series").Logger(),
		series:   make(map[string][]PricePoint),
	}
}

// Append records a price for a symbol, evicting the oldest point once
// the window is full. Symbols are normalized to uppercase.
func (s *SeriesStore) Append(symbol string, price float64, ts time.Time) {
	key := strings.ToUpper(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	points := append(s.series[key], PricePoint{Price: price, Time: ts})
	if len(points) > s.capacity {
		points = points[len(points)-s.capacity:]
	}
	s.series[key] = points
}

// Points returns a snapshot copy of the series for a symbol.
// Unknown symbols yield an empty slice.
func (s *SeriesStore) Points(symbol string) []PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[strings.ToUpper(symbol)]
	out := make([]PricePoint, len(points))
	copy(out, points)
	return out
}

// Closes returns just the price values for a symbol, oldest first
func (s *SeriesStore) Closes(symbol string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[strings.ToUpper(symbol)]
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

// LastPrice returns the most recent price for a symbol, or nil
func (s *SeriesStore) LastPrice(symbol string) *PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[strings.ToUpper(symbol)]
	if len(points) == 0 {
		return nil
	}
	p := points[len(points)-1]
	return &p
}

// Symbols returns the symbols currently tracked
func (s *SeriesStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.series))
	for sym := range s.series {
		out = append(out, sym)
	}
	return out
}
