package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tradedeck/tradedeck/internal/domain"
)

// balancesRequest is the wire shape of the get-balances request.
// Exchange and segment are uppercased before transmission.
type balancesRequest struct {
	Exchange string `json:"exchange"`
	Segment  string `json:"segment"`
}

// SymbolPairs fetches the full tradable-symbol universe, grouped by coarse
// type key and then by exchange.
func (c *Client) SymbolPairs(ctx context.Context) (domain.SymbolUniverse, error) {
	data, err := c.do(ctx, http.MethodGet, "/crypto/exchange/symbol-pairs", nil)
	if err != nil {
		return nil, err
	}

	var universe domain.SymbolUniverse
	if err := decode(data, &universe); err != nil {
		return nil, err
	}

	// Reject entries without a symbol name rather than carrying junk rows
	// into the cache.
	for typeKey, exchanges := range universe {
		for exchange, symbols := range exchanges {
			for i, s := range symbols {
				if s.Symbol == "" {
					return nil, fmt.Errorf("symbol-pairs response has empty symbol at %s/%s[%d]", typeKey, exchange, i)
				}
			}
		}
	}

	return universe, nil
}

// Balances fetches per-asset balances for an exchange+segment pair
func (c *Client) Balances(ctx context.Context, exchange string, segment domain.Segment) ([]domain.Balance, error) {
	req := balancesRequest{
		Exchange: strings.ToUpper(exchange),
		Segment:  strings.ToUpper(string(segment)),
	}

	data, err := c.do(ctx, http.MethodPost, "/crypto/exchange/get-balances", req)
	if err != nil {
		return nil, err
	}

	var balances []domain.Balance
	if err := decode(data, &balances); err != nil {
		return nil, err
	}
	for i, b := range balances {
		if b.Asset == "" {
			return nil, fmt.Errorf("balances response has empty asset at index %d", i)
		}
	}

	return balances, nil
}

// TradeInput carries an instant (non-recurring) trade request
type TradeInput struct {
	Exchange string  `json:"exchange"`
	Segment  string  `json:"segment"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"` // BUY or SELL
	Amount   float64 `json:"amount"`
}

// TradeResult is the backend's confirmation of an instant trade
type TradeResult struct {
	OrderID  string  `json:"orderId"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateTrade places an instant trade through the backend
func (c *Client) CreateTrade(ctx context.Context, input TradeInput) (*TradeResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/crypto/trade/create", input)
	if err != nil {
		return nil, err
	}

	var result TradeResult
	if err := decode(data, &result); err != nil {
		return nil, err
	}
	if result.OrderID == "" {
		return nil, fmt.Errorf("trade response missing order id")
	}

	return &result, nil
}
