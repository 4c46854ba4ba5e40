package mqtt

import (
	"fmt"
	"time"

	"bikeshare-dashboard/internal/modules/rentals/types"
)

// ValidateMessage checks a rental message before it is stored or sent.
func ValidateMessage(m types.RentalMessage) error {
	switch m.Kind {
	case types.KindDaily:
		if m.Hour != nil {
			return fmt.Errorf("hr must not be set for daily messages")
		}
	case types.KindHourly:
		if m.Hour == nil {
			return fmt.Errorf("hr is required for hourly messages")
		}
		if *m.Hour < 0 || *m.Hour > 23 {
			return fmt.Errorf("hr out of range: %d (must be 0-23)", *m.Hour)
		}
	default:
		return fmt.Errorf("unknown kind %q (allowed: daily, hourly)", m.Kind)
	}

	if _, err := time.Parse(types.DateLayout, m.Date); err != nil {
		return fmt.Errorf("dteday must be YYYY-MM-DD: %q", m.Date)
	}
	if _, ok := types.SeasonLabel(m.Season); !ok {
		return fmt.Errorf("unknown season code %d", m.Season)
	}
	if _, ok := types.WeatherLabel(m.Weather); !ok {
		return fmt.Errorf("unknown weathersit code %d", m.Weather)
	}
	if _, ok := types.WeekdayLabel(m.Weekday); !ok {
		return fmt.Errorf("weekday out of range: %d (must be 0-6)", m.Weekday)
	}
	if m.Count < 0 {
		return fmt.Errorf("cnt must not be negative: %d", m.Count)
	}
	return nil
}
