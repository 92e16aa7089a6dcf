package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	writeWait   = 10 * time.Second
	dialTimeout = 30 * time.Second

	baseReconnectDelay = 5 * time.Second
	maxReconnectDelay  = 5 * time.Minute
)

// priceTick is the wire shape of one price update.
// The stream protocol is ["prices", {...tick...}].
type priceTick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	TS     int64   `json:"ts"`
}

// PriceStream subscribes to the upstream price feed over websocket and
// pushes ticks into the series store. Reconnects with exponential
// backoff on any drop.
type PriceStream struct {
	url    string
	series *SeriesStore
	log    zerolog.Logger

	mu         sync.RWMutex
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	connected  bool
	stopped    bool
	stopChan   chan struct{}
}

// NewPriceStream creates a new price stream client
func NewPriceStream(url string, series *SeriesStore, log zerolog.Logger) *PriceStream {
	return &PriceStream{
		url:      url,
		series:   series,
		log:      log.With().Str("client", "price_stream").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start connects and begins the read loop. On initial failure the
// reconnect loop keeps trying in the background.
func (ps *PriceStream) Start() error {
	if err := ps.connect(); err != nil {
		ps.log.Warn().Err(err).Msg("Initial price stream connection failed, will retry")
		go ps.reconnectLoop()
		return err
	}

	ps.mu.RLock()
	ctx := ps.connCtx
	ps.mu.RUnlock()
	go ps.readLoop(ctx)

	return nil
}

// Stop shuts the stream down for good
func (ps *PriceStream) Stop() error {
	ps.mu.Lock()
	if ps.stopped {
		ps.mu.Unlock()
		return nil
	}
	ps.stopped = true
	ps.mu.Unlock()

	close(ps.stopChan)
	return ps.disconnect()
}

// IsConnected reports whether the stream currently has a live connection
func (ps *PriceStream) IsConnected() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.connected
}

func (ps *PriceStream) connect() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.log.Info().Str("url", ps.url).Msg("Connecting to price stream")

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, ps.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial price stream: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	ps.conn = conn
	ps.connCtx = connCtx
	ps.cancelFunc = connCancel
	ps.connected = true

	if err := ps.subscribe(connCtx); err != nil {
		connCancel()
		conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		ps.conn = nil
		ps.connCtx = nil
		ps.cancelFunc = nil
		ps.connected = false
		return fmt.Errorf("failed to subscribe to prices: %w", err)
	}

	ps.log.Info().Msg("Connected to price stream")
	return nil
}

func (ps *PriceStream) disconnect() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.conn == nil {
		return nil
	}

	if ps.cancelFunc != nil {
		ps.cancelFunc()
		ps.cancelFunc = nil
	}

	err := ps.conn.Close(websocket.StatusNormalClosure, "")
	ps.conn = nil
	ps.connCtx = nil
	ps.connected = false

	if err != nil {
		return fmt.Errorf("error closing price stream: %w", err)
	}
	return nil
}

func (ps *PriceStream) subscribe(ctx context.Context) error {
	data, err := json.Marshal([]string{"prices"})
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := ps.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}
	return nil
}

func (ps *PriceStream) readLoop(ctx context.Context) {
	defer func() {
		ps.mu.RLock()
		stopped := ps.stopped
		ps.mu.RUnlock()
		if !stopped {
			go ps.reconnectLoop()
		}
	}()

	for {
		select {
		case <-ps.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		ps.mu.RLock()
		conn := ps.conn
		ps.mu.RUnlock()
		if conn == nil {
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			switch {
			case closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway:
				ps.log.Info().Msg("Price stream closed normally")
			case ctx.Err() != nil:
				ps.log.Debug().Msg("Price stream read cancelled")
			default:
				ps.log.Error().Err(err).Msg("Price stream read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		if err := ps.handleMessage(message); err != nil {
			// keep reading despite parse errors
			ps.log.Error().Err(err).Msg("Failed to handle price message")
		}
	}
}

// handleMessage parses one stream message and records the tick.
// Messages on channels other than "prices" are ignored.
func (ps *PriceStream) handleMessage(message []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(message, &raw); err != nil {
		return fmt.Errorf("failed to parse message array: %w", err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("message array too short: got %d elements", len(raw))
	}

	var channel string
	if err := json.Unmarshal(raw[0], &channel); err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}
	if channel != "prices" {
		return nil
	}

	var tick priceTick
	if err := json.Unmarshal(raw[1], &tick); err != nil {
		return fmt.Errorf("failed to parse price tick: %w", err)
	}
	if tick.Symbol == "" {
		return fmt.Errorf("price tick missing symbol")
	}

	ts := time.Unix(tick.TS, 0)
	if tick.TS == 0 {
		ts = time.Now()
	}

	ps.series.Append(tick.Symbol, tick.Price, ts)
	return nil
}

func (ps *PriceStream) reconnectLoop() {
	attempt := 0
	for {
		select {
		case <-ps.stopChan:
			return
		default:
		}

		ps.mu.RLock()
		stopped := ps.stopped
		ps.mu.RUnlock()
		if stopped {
			return
		}

		attempt++
		delay := backoff(attempt)
		ps.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("Reconnecting to price stream")

		select {
		case <-time.After(delay):
		case <-ps.stopChan:
			return
		}

		if err := ps.connect(); err != nil {
			ps.log.Error().Err(err).Int("attempt", attempt).Msg("Price stream reconnect failed")
			continue
		}

		ps.mu.RLock()
		ctx := ps.connCtx
		ps.mu.RUnlock()
		go ps.readLoop(ctx)
		return
	}
}

// backoff returns the exponential reconnect delay for an attempt
func backoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}
