package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyValidate(t *testing.T) {
	tests := []struct {
		name    string
		freq    Frequency
		wantErr bool
	}{
		{
			name: "valid daily",
			freq: Frequency{Type: FrequencyDaily, Time: "09:30"},
		},
		{
			name:    "daily missing time",
			freq:    Frequency{Type: FrequencyDaily},
			wantErr: true,
		},
		{
			name:    "daily with extra days",
			freq:    Frequency{Type: FrequencyDaily, Time: "09:30", Days: []string{"MON"}},
			wantErr: true,
		},
		{
			name: "valid weekly",
			freq: Frequency{Type: FrequencyWeekly, Time: "18:00", Days: []string{"MON", "FRI"}},
		},
		{
			name:    "weekly bad day code",
			freq:    Frequency{Type: FrequencyWeekly, Time: "18:00", Days: []string{"MONDAY"}},
			wantErr: true,
		},
		{
			name:    "weekly no days",
			freq:    Frequency{Type: FrequencyWeekly, Time: "18:00"},
			wantErr: true,
		},
		{
			name: "valid monthly",
			freq: Frequency{Type: FrequencyMonthly, Time: "00:00", Dates: []int{3, 15, 28}},
		},
		{
			name:    "monthly unsorted dates",
			freq:    Frequency{Type: FrequencyMonthly, Time: "00:00", Dates: []int{15, 3}},
			wantErr: true,
		},
		{
			name:    "monthly date out of range",
			freq:    Frequency{Type: FrequencyMonthly, Time: "00:00", Dates: []int{32}},
			wantErr: true,
		},
		{
			name: "valid hourly",
			freq: Frequency{Type: FrequencyHourly, IntervalHours: 6},
		},
		{
			name:    "hourly interval too large",
			freq:    Frequency{Type: FrequencyHourly, IntervalHours: 25},
			wantErr: true,
		},
		{
			name:    "hourly with time",
			freq:    Frequency{Type: FrequencyHourly, IntervalHours: 6, Time: "09:00"},
			wantErr: true,
		},
		{
			name:    "invalid time format",
			freq:    Frequency{Type: FrequencyDaily, Time: "9:30"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			freq:    Frequency{Type: "YEARLY", Time: "09:30"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.freq.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "************3456", MaskSecret("abcdefghij123456"))
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "**", MaskSecret("ab"))
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "*cdef", MaskSecret("bcdef"))
}

func TestIsCopyTradeExchange(t *testing.T) {
	assert.True(t, IsCopyTradeExchange("BINANCE"))
	assert.True(t, IsCopyTradeExchange("binance"))
	assert.True(t, IsCopyTradeExchange("KuCoin"))
	assert.True(t, IsCopyTradeExchange("COINDCX"))
	assert.False(t, IsCopyTradeExchange("BYBIT"))
	assert.False(t, IsCopyTradeExchange(""))
}
