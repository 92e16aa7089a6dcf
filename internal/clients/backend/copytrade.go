package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tradedeck/tradedeck/internal/domain"
)

// SubscribeInput carries a new copy-trade subscription request
type SubscribeInput struct {
	PublishedStrategyID string  `json:"publishedStrategyId"`
	Exchange            string  `json:"exchange"`
	Multiplier          float64 `json:"multiplier"`
}

// subscriptionStatusPatch is the wire shape of a status-only update
type subscriptionStatusPatch struct {
	Status domain.SubscriptionStatus `json:"status"`
}

// PublishedStrategies fetches the catalogue of strategies open for copying
func (c *Client) PublishedStrategies(ctx context.Context) ([]domain.PublishedStrategy, error) {
	data, err := c.do(ctx, http.MethodGet, "/strategy/published", nil)
	if err != nil {
		return nil, err
	}

	var published []domain.PublishedStrategy
	if err := decode(data, &published); err != nil {
		return nil, err
	}
	for i, p := range published {
		if p.ID == "" {
			return nil, fmt.Errorf("published strategies response has entry without id at index %d", i)
		}
	}

	return published, nil
}

// Subscriptions fetches the current user's copy-trade subscriptions
func (c *Client) Subscriptions(ctx context.Context) ([]domain.Subscription, error) {
	data, err := c.do(ctx, http.MethodGet, "/strategy/subscriptions", nil)
	if err != nil {
		return nil, err
	}

	var subs []domain.Subscription
	if err := decode(data, &subs); err != nil {
		return nil, err
	}

	return subs, nil
}

// Subscribe creates a copy-trade subscription and returns the server
// entity with its assigned ids.
func (c *Client) Subscribe(ctx context.Context, input SubscribeInput) (*domain.Subscription, error) {
	data, err := c.do(ctx, http.MethodPost, "/strategy/subscriptions", input)
	if err != nil {
		return nil, err
	}

	var sub domain.Subscription
	if err := decode(data, &sub); err != nil {
		return nil, err
	}
	if sub.ID == "" {
		return nil, fmt.Errorf("subscription response missing id")
	}

	return &sub, nil
}

// Unsubscribe removes a subscription by its identifier
func (c *Client) Unsubscribe(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/strategy/subscriptions/"+id, nil)
	return err
}

// SetSubscriptionStatus pauses or resumes a subscription. The backend
// treats this as a status-only patch.
func (c *Client) SetSubscriptionStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	_, err := c.do(ctx, http.MethodPatch, "/strategy/subscriptions/"+id+"/status", subscriptionStatusPatch{Status: status})
	return err
}
