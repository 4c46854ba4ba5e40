package service

import (
	"time"

	"bikeshare-dashboard/internal/modules/rentals/analysis"
	"bikeshare-dashboard/internal/modules/rentals/types"
)

type Variant string

const (
	VariantRange  Variant = "range"
	VariantSingle Variant = "single"
)

// WarningStartAfterEnd is shown when the range filter is inverted. The filter
// is still applied as given.
const WarningStartAfterEnd = "start date must not be after end date"

// RangeQuery is the range dashboard input. Nil dates default to the data
// bounds. Unless Filtered is set, empty Seasons/Weathers default to every
// option; with Filtered an empty selection matches nothing.
type RangeQuery struct {
	Start    *time.Time
	End      *time.Time
	Seasons  []int
	Weathers []int
	Filtered bool
}

// SingleQuery is the single-choice dashboard input. Nil codes default to the
// first option.
type SingleQuery struct {
	Season  *int
	Weather *int
}

type Options struct {
	Seasons  []types.Option `json:"seasons"`
	Weathers []types.Option `json:"weathers"`
	MinDate  string         `json:"min_date,omitempty"`
	MaxDate  string         `json:"max_date,omitempty"`
}

// FilterState is the filter after defaults were applied.
type FilterState struct {
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Seasons  []int  `json:"seasons"`
	Weathers []int  `json:"weathers"`
}

// HasSeason and HasWeather drive the checked state of the form inputs.
func (f FilterState) HasSeason(code int) bool  { return contains(f.Seasons, code) }
func (f FilterState) HasWeather(code int) bool { return contains(f.Weathers, code) }

type Report struct {
	Variant      Variant                    `json:"variant"`
	Summary      string                     `json:"summary"`
	Warnings     []string                   `json:"warnings"`
	Filter       FilterState                `json:"filter"`
	Options      Options                    `json:"options"`
	Days         int                        `json:"days"`
	Rows         []analysis.TableRow        `json:"rows"`
	Hourly       []analysis.HourPoint       `json:"hourly"`
	DayTypes     []analysis.DayTypeShare    `json:"day_types"`
	Weekdays     []analysis.WeekdayAverage  `json:"weekdays"`
	Temperatures []analysis.TemperatureBand `json:"temperatures"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}

func contains(vals []int, v int) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
