package analysis

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-dashboard/internal/modules/rentals/dataset"
	"bikeshare-dashboard/internal/modules/rentals/types"
)

// RangeFilter selects daily rows by inclusive date range and season/weather
// membership. An empty Seasons or Weathers slice matches nothing.
type RangeFilter struct {
	Start    time.Time
	End      time.Time
	Seasons  []int
	Weathers []int
}

// ChoiceFilter selects rows with exactly one season and one weather code.
type ChoiceFilter struct {
	Season  int
	Weather int
}

// FilterRange applies f to a daily frame. Start after End is not corrected and
// simply yields no rows.
func FilterRange(daily dataframe.DataFrame, f RangeFilter) (dataframe.DataFrame, error) {
	// Filter calls are chained: filters within one call are ORed.
	out := daily.
		Filter(dataframe.F{Colname: dataset.ColDate, Comparator: series.GreaterEq, Comparando: f.Start.Format(types.DateLayout)}).
		Filter(dataframe.F{Colname: dataset.ColDate, Comparator: series.LessEq, Comparando: f.End.Format(types.DateLayout)}).
		Filter(dataframe.F{Colname: dataset.ColSeason, Comparator: series.In, Comparando: codes(f.Seasons)}).
		Filter(dataframe.F{Colname: dataset.ColWeather, Comparator: series.In, Comparando: codes(f.Weathers)})
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("filter range: %w", out.Err)
	}
	return out, nil
}

// FilterChoice applies f to a daily or hourly frame.
func FilterChoice(df dataframe.DataFrame, f ChoiceFilter) (dataframe.DataFrame, error) {
	out := df.
		Filter(dataframe.F{Colname: dataset.ColSeason, Comparator: series.Eq, Comparando: f.Season}).
		Filter(dataframe.F{Colname: dataset.ColWeather, Comparator: series.Eq, Comparando: f.Weather})
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("filter choice: %w", out.Err)
	}
	return out, nil
}

func codes(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}

// SeasonOptions lists the labelled season codes of daily in order of first
// appearance.
func SeasonOptions(daily dataframe.DataFrame) ([]types.Option, error) {
	return options(daily, dataset.ColSeason, types.SeasonLabel)
}

// WeatherOptions lists the labelled weather codes of daily in order of first
// appearance.
func WeatherOptions(daily dataframe.DataFrame) ([]types.Option, error) {
	return options(daily, dataset.ColWeather, types.WeatherLabel)
}

func options(df dataframe.DataFrame, col string, label func(int) (string, bool)) ([]types.Option, error) {
	vals, err := ints(df, col)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	out := []types.Option{}
	for _, v := range vals {
		if seen[v] {
			continue
		}
		seen[v] = true
		if l, ok := label(v); ok {
			out = append(out, types.Option{Code: v, Label: l})
		}
	}
	return out, nil
}

// DateBounds returns the earliest and latest dteday of daily.
func DateBounds(daily dataframe.DataFrame) (time.Time, time.Time, error) {
	if daily.Err != nil {
		return time.Time{}, time.Time{}, daily.Err
	}
	if daily.Nrow() == 0 {
		return time.Time{}, time.Time{}, ErrNoData
	}
	// dteday is normalised to YYYY-MM-DD, so string order is date order.
	dates := daily.Col(dataset.ColDate)
	lo, hi := dates.MinStr(), dates.MaxStr()
	start, err := dataset.ParseDate(lo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := dataset.ParseDate(hi)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func ints(df dataframe.DataFrame, col string) ([]int, error) {
	s := df.Col(col)
	if s.Err != nil {
		return nil, fmt.Errorf("column %q: %w", col, s.Err)
	}
	v, err := s.Int()
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", col, err)
	}
	return v, nil
}
