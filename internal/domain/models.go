// Package domain provides core domain models and types.
package domain

import (
	"strings"
	"time"
)

// Segment represents a market segment on an exchange
type Segment string

const (
	SegmentSpot    Segment = "SPOT"
	SegmentFutures Segment = "FUTURES"
	SegmentMargin  Segment = "MARGIN"
)

// FrequencyType represents how often a recurring strategy runs
type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "DAILY"
	FrequencyWeekly  FrequencyType = "WEEKLY"
	FrequencyMonthly FrequencyType = "MONTHLY"
	FrequencyHourly  FrequencyType = "HOURLY"
)

// Frequency is a tagged union: exactly one shape is populated, matching Type.
// DAILY carries a time, WEEKLY a time plus weekday short-codes, MONTHLY a time
// plus ascending day-of-month numbers, HOURLY an interval between 1 and 24.
type Frequency struct {
	Type          FrequencyType `json:"type"`
	Time          string        `json:"time,omitempty"`          // 24-hour HH:MM
	Days          []string      `json:"days,omitempty"`          // MON..SUN short codes
	Dates         []int         `json:"dates,omitempty"`         // 1..31, sorted ascending
	IntervalHours int           `json:"intervalHours,omitempty"` // 1..24
}

// StrategyStatus represents the lifecycle state of a strategy.
// The backend uses uppercase values; the same casing is used everywhere here.
type StrategyStatus string

const (
	StrategyActive  StrategyStatus = "ACTIVE"
	StrategyPaused  StrategyStatus = "PAUSED"
	StrategyStopped StrategyStatus = "STOPPED"
)

// Strategy represents a recurring trading strategy owned by the backend.
// The local copy is a best-effort mirror for display; the backend is the
// single source of truth and every mutation goes through it first.
type Strategy struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Name             string         `json:"name"`
	StrategyType     string         `json:"strategyType"` // e.g. GROWTH_DCA, GRID, TREND
	AssetType        string         `json:"assetType"`    // e.g. CRYPTO
	Exchange         string         `json:"exchange"`
	Segment          Segment        `json:"segment"`
	Symbol           string         `json:"symbol"`
	InvestmentPerRun float64        `json:"investmentPerRun"`
	InvestmentCap    float64        `json:"investmentCap"`
	Frequency        Frequency      `json:"frequency"`
	TakeProfitPct    float64        `json:"takeProfitPct,omitempty"`
	StopLossPct      float64        `json:"stopLossPct,omitempty"`
	PriceLowerBound  float64        `json:"priceLowerBound,omitempty"`
	PriceUpperBound  float64        `json:"priceUpperBound,omitempty"`
	Status           StrategyStatus `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// StrategyPatch holds the updatable fields of a strategy. Nil means unchanged.
type StrategyPatch struct {
	Name             *string         `json:"name,omitempty"`
	InvestmentPerRun *float64        `json:"investmentPerRun,omitempty"`
	InvestmentCap    *float64        `json:"investmentCap,omitempty"`
	Frequency        *Frequency      `json:"frequency,omitempty"`
	TakeProfitPct    *float64        `json:"takeProfitPct,omitempty"`
	StopLossPct      *float64        `json:"stopLossPct,omitempty"`
	PriceLowerBound  *float64        `json:"priceLowerBound,omitempty"`
	PriceUpperBound  *float64        `json:"priceUpperBound,omitempty"`
	Status           *StrategyStatus `json:"status,omitempty"`
}

// Symbol represents a tradable pair
type Symbol struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// SymbolUniverse groups symbols first by a coarse type key (e.g. CRYPTO_SPOT)
// and then by exchange name, mirroring the backend's symbol-pairs response.
type SymbolUniverse map[string]map[string][]Symbol

// Balance represents per-asset funds for an exchange+segment pair
type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
	Total  float64 `json:"total"`
}

// User represents the authenticated account
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credential represents a brokerage connection. Key and secret are stored
// only backend-side; the gateway keeps masked forms for display.
type Credential struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Exchange      string    `json:"exchange"`
	APIKeyMasked  string    `json:"apiKeyMasked"`
	SecretMasked  string    `json:"secretMasked"`
	HasPassphrase bool      `json:"hasPassphrase"`
	Version       string    `json:"version,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SubscriptionStatus mirrors StrategyStatus for copy-trade subscriptions
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "ACTIVE"
	SubscriptionPaused  SubscriptionStatus = "PAUSED"
	SubscriptionStopped SubscriptionStatus = "STOPPED"
)

// PublishedStrategy is a strategy another user has made available for copying
type PublishedStrategy struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"` // Owner of the published strategy
	OwnerName   string    `json:"ownerName,omitempty"`
	Name        string    `json:"name"`
	Exchange    string    `json:"exchange"`
	Symbol      string    `json:"symbol"`
	Followers   int       `json:"followers"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Subscription represents a copy-trade subscription to a published strategy
type Subscription struct {
	ID                  string             `json:"id"`
	PublishedStrategyID string             `json:"publishedStrategyId"`
	Exchange            string             `json:"exchange"`
	Multiplier          float64            `json:"multiplier"`
	Status              SubscriptionStatus `json:"status"`
	CreatedAt           time.Time          `json:"createdAt"`
}

// CopyTradeExchanges is the fixed allow-list of exchanges a subscription
// may execute on.
var CopyTradeExchanges = []string{"BINANCE", "KUCOIN", "COINDCX"}

// IsCopyTradeExchange reports whether exchange is on the allow-list
// (case-insensitive).
func IsCopyTradeExchange(exchange string) bool {
	for _, e := range CopyTradeExchanges {
		if strings.EqualFold(e, exchange) {
			return true
		}
	}
	return false
}

// MaskSecret returns a display form of a secret showing only the last 4
// characters. Shorter secrets are fully masked.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
