package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tradedeck/tradedeck/internal/domain"
)

// StrategyInput is the validated payload for creating a strategy. It is
// assembled by the strategy form builder, never constructed ad hoc.
type StrategyInput struct {
	Name             string            `json:"name"`
	StrategyType     string            `json:"strategyType"`
	AssetType        string            `json:"assetType"`
	Exchange         string            `json:"exchange"`
	Segment          domain.Segment    `json:"segment"`
	Symbol           string            `json:"symbol"`
	InvestmentPerRun float64           `json:"investmentPerRun"`
	InvestmentCap    float64           `json:"investmentCap"`
	Frequency        *domain.Frequency `json:"frequency,omitempty"` // nil for non-recurring types
	GridLevels       int               `json:"gridLevels,omitempty"`
	TrendIndicator   string            `json:"trendIndicator,omitempty"`
	LookbackPeriods  int               `json:"lookbackPeriods,omitempty"`
	TakeProfitPct    float64           `json:"takeProfitPct,omitempty"`
	StopLossPct      float64           `json:"stopLossPct,omitempty"`
	PriceLowerBound  float64           `json:"priceLowerBound,omitempty"`
	PriceUpperBound  float64           `json:"priceUpperBound,omitempty"`
}

// Strategies fetches the full strategy collection for the current user
func (c *Client) Strategies(ctx context.Context) ([]domain.Strategy, error) {
	data, err := c.do(ctx, http.MethodGet, "/strategy/strategies", nil)
	if err != nil {
		return nil, err
	}

	var strategies []domain.Strategy
	if err := decode(data, &strategies); err != nil {
		return nil, err
	}
	for i, s := range strategies {
		if s.ID == "" {
			return nil, fmt.Errorf("strategies response has entry without id at index %d", i)
		}
	}

	return strategies, nil
}

// CreateStrategy creates a strategy and returns the server entity with its
// assigned id.
func (c *Client) CreateStrategy(ctx context.Context, input StrategyInput) (*domain.Strategy, error) {
	data, err := c.do(ctx, http.MethodPost, "/strategy/strategies", input)
	if err != nil {
		return nil, err
	}

	var strategy domain.Strategy
	if err := decode(data, &strategy); err != nil {
		return nil, err
	}
	if strategy.ID == "" {
		return nil, fmt.Errorf("strategy response missing id")
	}

	return &strategy, nil
}

// UpdateStrategy applies a partial update and returns the updated entity
func (c *Client) UpdateStrategy(ctx context.Context, id string, patch domain.StrategyPatch) (*domain.Strategy, error) {
	data, err := c.do(ctx, http.MethodPut, "/strategy/strategies/"+id, patch)
	if err != nil {
		return nil, err
	}

	var strategy domain.Strategy
	if err := decode(data, &strategy); err != nil {
		return nil, err
	}
	if strategy.ID == "" {
		return nil, fmt.Errorf("strategy response missing id")
	}

	return &strategy, nil
}

// DeleteStrategy removes a strategy
func (c *Client) DeleteStrategy(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/strategy/strategies/"+id, nil)
	return err
}
