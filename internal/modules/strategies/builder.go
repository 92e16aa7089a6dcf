package strategies

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/domain"
)

// ValidationError is a client-side pre-submission failure. It never reaches
// the network; the first failing check wins and carries the one message
// shown to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// GrowthDCAForm collects the scattered form fields of the Growth DCA
// builder. Time of day arrives in the 12-hour representation the form
// uses and is normalized to 24-hour HH:MM during assembly.
type GrowthDCAForm struct {
	Name             string   `json:"name"`
	Exchange         string   `json:"exchange"`
	Segment          string   `json:"segment"`
	Symbol           string   `json:"symbol"`
	InvestmentPerRun float64  `json:"investmentPerRun"`
	InvestmentCap    float64  `json:"investmentCap"`
	Frequency        string   `json:"frequency"` // DAILY, WEEKLY, MONTHLY, HOURLY
	Hour             string   `json:"hour"`      // "1".."12"
	Minute           string   `json:"minute"`    // "0".."59"
	Period           string   `json:"period"`    // AM or PM
	Weekdays         []string `json:"weekdays,omitempty"`
	MonthlyDates     []int    `json:"monthlyDates,omitempty"`
	HourlyInterval   int      `json:"hourlyInterval,omitempty"`
	TakeProfitPct    float64  `json:"takeProfitPct,omitempty"`
	StopLossPct      float64  `json:"stopLossPct,omitempty"`
	PriceLowerBound  float64  `json:"priceLowerBound,omitempty"`
	PriceUpperBound  float64  `json:"priceUpperBound,omitempty"`
}

// Build validates the form and assembles the submission payload. Checks run
// in order and the first failure short-circuits with exactly one message.
func (f GrowthDCAForm) Build() (*backend.StrategyInput, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, invalid("strategy name is required")
	}
	if strings.TrimSpace(f.Exchange) == "" {
		return nil, invalid("exchange is required")
	}
	if strings.TrimSpace(f.Segment) == "" {
		return nil, invalid("market segment is required")
	}
	if strings.TrimSpace(f.Symbol) == "" {
		return nil, invalid("trading symbol is required")
	}
	if f.InvestmentPerRun <= 0 {
		return nil, invalid("investment per run must be greater than zero")
	}
	if f.InvestmentCap <= 0 {
		return nil, invalid("investment cap must be greater than zero")
	}
	if f.InvestmentCap < f.InvestmentPerRun {
		return nil, invalid("investment cap must not be smaller than the per-run amount")
	}

	freq, err := f.buildFrequency()
	if err != nil {
		return nil, err
	}

	if f.PriceLowerBound > 0 && f.PriceUpperBound > 0 && f.PriceLowerBound >= f.PriceUpperBound {
		return nil, invalid("lower price bound must be below the upper bound")
	}

	return &backend.StrategyInput{
		Name:             strings.TrimSpace(f.Name),
		StrategyType:     "GROWTH_DCA",
		AssetType:        "CRYPTO",
		Exchange:         strings.ToUpper(f.Exchange),
		Segment:          domain.Segment(strings.ToUpper(f.Segment)),
		Symbol:           strings.ToUpper(f.Symbol),
		InvestmentPerRun: f.InvestmentPerRun,
		InvestmentCap:    f.InvestmentCap,
		Frequency:        freq,
		TakeProfitPct:    f.TakeProfitPct,
		StopLossPct:      f.StopLossPct,
		PriceLowerBound:  f.PriceLowerBound,
		PriceUpperBound:  f.PriceUpperBound,
	}, nil
}

// buildFrequency emits only the fields relevant to the selected variant
func (f GrowthDCAForm) buildFrequency() (*domain.Frequency, error) {
	switch domain.FrequencyType(f.Frequency) {
	case domain.FrequencyDaily:
		t, err := ConvertTo24Hour(f.Hour, f.Minute, f.Period)
		if err != nil {
			return nil, err
		}
		return &domain.Frequency{Type: domain.FrequencyDaily, Time: t}, nil

	case domain.FrequencyWeekly:
		if len(f.Weekdays) == 0 {
			return nil, invalid("select at least one weekday")
		}
		t, err := ConvertTo24Hour(f.Hour, f.Minute, f.Period)
		if err != nil {
			return nil, err
		}
		days := make([]string, len(f.Weekdays))
		for i, d := range f.Weekdays {
			days[i] = strings.ToUpper(d)
		}
		return &domain.Frequency{Type: domain.FrequencyWeekly, Time: t, Days: days}, nil

	case domain.FrequencyMonthly:
		if len(f.MonthlyDates) == 0 {
			return nil, invalid("select at least one date of the month")
		}
		for _, d := range f.MonthlyDates {
			if d < 1 || d > 31 {
				return nil, invalid("dates of the month must be between 1 and 31")
			}
		}
		t, err := ConvertTo24Hour(f.Hour, f.Minute, f.Period)
		if err != nil {
			return nil, err
		}
		dates := make([]int, len(f.MonthlyDates))
		copy(dates, f.MonthlyDates)
		sort.Ints(dates)
		return &domain.Frequency{Type: domain.FrequencyMonthly, Time: t, Dates: dates}, nil

	case domain.FrequencyHourly:
		if f.HourlyInterval < 1 || f.HourlyInterval > 24 {
			return nil, invalid("hourly interval must be between 1 and 24")
		}
		return &domain.Frequency{Type: domain.FrequencyHourly, IntervalHours: f.HourlyInterval}, nil

	default:
		return nil, invalid("select a recurrence frequency")
	}
}

// ConvertTo24Hour normalizes the form's 12-hour hour/minute/period fields
// to a 24-hour HH:MM string. 12 AM maps to 00, 12 PM stays 12.
func ConvertTo24Hour(hourStr, minuteStr, period string) (string, error) {
	hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
	if err != nil || hour < 1 || hour > 12 {
		return "", invalid("hour must be between 1 and 12")
	}

	minute, err := strconv.Atoi(strings.TrimSpace(minuteStr))
	if err != nil || minute < 0 || minute > 59 {
		return "", invalid("minute must be between 0 and 59")
	}

	switch strings.ToUpper(strings.TrimSpace(period)) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return "", invalid("period must be AM or PM")
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// GridForm collects the grid strategy builder fields
type GridForm struct {
	Name            string  `json:"name"`
	Exchange        string  `json:"exchange"`
	Segment         string  `json:"segment"`
	Symbol          string  `json:"symbol"`
	InvestmentCap   float64 `json:"investmentCap"`
	GridLevels      int     `json:"gridLevels"`
	PriceLowerBound float64 `json:"priceLowerBound"`
	PriceUpperBound float64 `json:"priceUpperBound"`
	TakeProfitPct   float64 `json:"takeProfitPct,omitempty"`
	StopLossPct     float64 `json:"stopLossPct,omitempty"`
}

// Build validates the grid form and assembles the submission payload
func (f GridForm) Build() (*backend.StrategyInput, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, invalid("strategy name is required")
	}
	if strings.TrimSpace(f.Exchange) == "" {
		return nil, invalid("exchange is required")
	}
	if strings.TrimSpace(f.Segment) == "" {
		return nil, invalid("market segment is required")
	}
	if strings.TrimSpace(f.Symbol) == "" {
		return nil, invalid("trading symbol is required")
	}
	if f.InvestmentCap <= 0 {
		return nil, invalid("investment cap must be greater than zero")
	}
	if f.GridLevels < 2 {
		return nil, invalid("grid needs at least two levels")
	}
	if f.PriceLowerBound <= 0 || f.PriceUpperBound <= 0 {
		return nil, invalid("price bounds are required for a grid")
	}
	if f.PriceLowerBound >= f.PriceUpperBound {
		return nil, invalid("lower price bound must be below the upper bound")
	}

	return &backend.StrategyInput{
		Name:            strings.TrimSpace(f.Name),
		StrategyType:    "GRID",
		AssetType:       "CRYPTO",
		Exchange:        strings.ToUpper(f.Exchange),
		Segment:         domain.Segment(strings.ToUpper(f.Segment)),
		Symbol:          strings.ToUpper(f.Symbol),
		InvestmentCap:   f.InvestmentCap,
		GridLevels:      f.GridLevels,
		PriceLowerBound: f.PriceLowerBound,
		PriceUpperBound: f.PriceUpperBound,
		TakeProfitPct:   f.TakeProfitPct,
		StopLossPct:     f.StopLossPct,
	}, nil
}

// TrendForm collects the trend-following strategy builder fields
type TrendForm struct {
	Name             string  `json:"name"`
	Exchange         string  `json:"exchange"`
	Segment          string  `json:"segment"`
	Symbol           string  `json:"symbol"`
	InvestmentPerRun float64 `json:"investmentPerRun"`
	InvestmentCap    float64 `json:"investmentCap"`
	TrendIndicator   string  `json:"trendIndicator"` // SMA or RSI
	LookbackPeriods  int     `json:"lookbackPeriods"`
	TakeProfitPct    float64 `json:"takeProfitPct,omitempty"`
	StopLossPct      float64 `json:"stopLossPct,omitempty"`
}

// Build validates the trend form and assembles the submission payload
func (f TrendForm) Build() (*backend.StrategyInput, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, invalid("strategy name is required")
	}
	if strings.TrimSpace(f.Exchange) == "" {
		return nil, invalid("exchange is required")
	}
	if strings.TrimSpace(f.Segment) == "" {
		return nil, invalid("market segment is required")
	}
	if strings.TrimSpace(f.Symbol) == "" {
		return nil, invalid("trading symbol is required")
	}
	if f.InvestmentPerRun <= 0 {
		return nil, invalid("investment per run must be greater than zero")
	}
	if f.InvestmentCap <= 0 {
		return nil, invalid("investment cap must be greater than zero")
	}
	indicator := strings.ToUpper(strings.TrimSpace(f.TrendIndicator))
	if indicator != "SMA" && indicator != "RSI" {
		return nil, invalid("trend indicator must be SMA or RSI")
	}
	if f.LookbackPeriods < 2 {
		return nil, invalid("lookback must span at least two periods")
	}

	return &backend.StrategyInput{
		Name:             strings.TrimSpace(f.Name),
		StrategyType:     "TREND",
		AssetType:        "CRYPTO",
		Exchange:         strings.ToUpper(f.Exchange),
		Segment:          domain.Segment(strings.ToUpper(f.Segment)),
		Symbol:           strings.ToUpper(f.Symbol),
		InvestmentPerRun: f.InvestmentPerRun,
		InvestmentCap:    f.InvestmentCap,
		TrendIndicator:   indicator,
		LookbackPeriods:  f.LookbackPeriods,
		TakeProfitPct:    f.TakeProfitPct,
		StopLossPct:      f.StopLossPct,
	}, nil
}
