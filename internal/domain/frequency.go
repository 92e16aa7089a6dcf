package domain

import (
	"fmt"
	"regexp"
	"sort"
)

// timeOfDayRe matches a 24-hour HH:MM string
var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// validWeekdays are the accepted weekday short-codes for WEEKLY frequencies
var validWeekdays = map[string]bool{
	"MON": true, "TUE": true, "WED": true, "THU": true,
	"FRI": true, "SAT": true, "SUN": true,
}

// Validate enforces the tagged-union invariant: exactly the fields belonging
// to the Type variant are populated, and each is well-formed.
func (f Frequency) Validate() error {
	switch f.Type {
	case FrequencyDaily:
		if err := validateTimeOfDay(f.Time); err != nil {
			return err
		}
		if len(f.Days) > 0 || len(f.Dates) > 0 || f.IntervalHours != 0 {
			return fmt.Errorf("daily frequency must carry only a time")
		}
	case FrequencyWeekly:
		if err := validateTimeOfDay(f.Time); err != nil {
			return err
		}
		if len(f.Days) == 0 {
			return fmt.Errorf("weekly frequency requires at least one day")
		}
		for _, d := range f.Days {
			if !validWeekdays[d] {
				return fmt.Errorf("invalid weekday code: %s", d)
			}
		}
		if len(f.Dates) > 0 || f.IntervalHours != 0 {
			return fmt.Errorf("weekly frequency must carry only a time and days")
		}
	case FrequencyMonthly:
		if err := validateTimeOfDay(f.Time); err != nil {
			return err
		}
		if len(f.Dates) == 0 {
			return fmt.Errorf("monthly frequency requires at least one date")
		}
		for _, d := range f.Dates {
			if d < 1 || d > 31 {
				return fmt.Errorf("invalid day of month: %d", d)
			}
		}
		if !sort.IntsAreSorted(f.Dates) {
			return fmt.Errorf("monthly dates must be sorted ascending")
		}
		if len(f.Days) > 0 || f.IntervalHours != 0 {
			return fmt.Errorf("monthly frequency must carry only a time and dates")
		}
	case FrequencyHourly:
		if f.IntervalHours < 1 || f.IntervalHours > 24 {
			return fmt.Errorf("hourly interval must be between 1 and 24, got %d", f.IntervalHours)
		}
		if f.Time != "" || len(f.Days) > 0 || len(f.Dates) > 0 {
			return fmt.Errorf("hourly frequency must carry only an interval")
		}
	default:
		return fmt.Errorf("unknown frequency type: %s", f.Type)
	}
	return nil
}

func validateTimeOfDay(t string) error {
	if t == "" {
		return fmt.Errorf("frequency time is required")
	}
	if !timeOfDayRe.MatchString(t) {
		return fmt.Errorf("invalid time of day: %s (expected HH:MM)", t)
	}
	return nil
}
