package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-dashboard/internal/modules/rentals/dataset"
	"bikeshare-dashboard/internal/modules/rentals/types"
)

var ErrNoData = errors.New("no data for the selected filters")

const (
	DayTypeWeekday = "Weekday"
	DayTypeWeekend = "Weekend"
)

// TemperatureLabels name the five temperature bands from coldest to hottest.
var TemperatureLabels = []string{"Very Cold", "Cold", "Mild", "Warm", "Hot"}

type HourPoint struct {
	Hour int     `json:"hour"`
	Mean float64 `json:"mean"`
}

type DayTypeShare struct {
	Label   string  `json:"label"`
	Days    int     `json:"days"`
	Percent float64 `json:"percent"`
}

// PercentLabel formats the share the way the pie chart labels it.
func (s DayTypeShare) PercentLabel() string {
	return fmt.Sprintf("%.1f%%", s.Percent)
}

type WeekdayAverage struct {
	Label string  `json:"label"`
	Days  int     `json:"days"`
	Mean  float64 `json:"mean"`
}

type TemperatureBand struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Days  int     `json:"days"`
	Mean  float64 `json:"mean"`
}

// HourlyPattern returns the mean cnt for every hour present in hourly, in
// ascending hour order.
func HourlyPattern(hourly dataframe.DataFrame) ([]HourPoint, error) {
	hours, err := ints(hourly, dataset.ColHour)
	if err != nil {
		return nil, err
	}
	distinct := uniqueSorted(hours)

	out := make([]HourPoint, 0, len(distinct))
	for _, h := range distinct {
		sub := hourly.Filter(dataframe.F{Colname: dataset.ColHour, Comparator: series.Eq, Comparando: h})
		mean, _, err := meanCount(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, HourPoint{Hour: h, Mean: mean})
	}
	return out, nil
}

// DayTypeShares splits the days of daily into weekdays (weekday code < 5) and
// weekend days. Types without days are left out; the larger share comes first.
func DayTypeShares(daily dataframe.DataFrame) ([]DayTypeShare, error) {
	if daily.Err != nil {
		return nil, daily.Err
	}
	total := daily.Nrow()
	if total == 0 {
		return []DayTypeShare{}, nil
	}
	weekdays := daily.Filter(dataframe.F{Colname: dataset.ColWeekday, Comparator: series.Less, Comparando: 5})
	if weekdays.Err != nil {
		return nil, weekdays.Err
	}
	counts := []DayTypeShare{
		{Label: DayTypeWeekday, Days: weekdays.Nrow()},
		{Label: DayTypeWeekend, Days: total - weekdays.Nrow()},
	}

	out := make([]DayTypeShare, 0, 2)
	for _, c := range counts {
		if c.Days == 0 {
			continue
		}
		c.Percent = float64(c.Days) / float64(total) * 100
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Days > out[j].Days })
	return out, nil
}

// WeekdayAverages returns the mean cnt per day of week, Monday through Sunday.
// Days absent from daily report a mean of 0.
func WeekdayAverages(daily dataframe.DataFrame) ([]WeekdayAverage, error) {
	if daily.Err != nil {
		return nil, daily.Err
	}
	out := make([]WeekdayAverage, 0, len(types.WeekOrder))
	for i, label := range types.WeekOrder {
		code := (i + 1) % 7 // WeekOrder starts on Monday, codes start on Sunday
		sub := daily.Filter(dataframe.F{Colname: dataset.ColWeekday, Comparator: series.Eq, Comparando: code})
		mean, n, err := meanCount(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, WeekdayAverage{Label: label, Days: n, Mean: mean})
	}
	return out, nil
}

// TemperatureBands cuts temp into five equal-width, right-closed bins over the
// observed range and reports the mean cnt per bin. The lowest edge is pushed
// down by 0.1% of the range so that the minimum falls into the first bin.
func TemperatureBands(daily dataframe.DataFrame) ([]TemperatureBand, error) {
	if daily.Err != nil {
		return nil, daily.Err
	}
	if daily.Nrow() == 0 {
		return []TemperatureBand{}, nil
	}
	temps := daily.Col(dataset.ColTemp)
	edges := binEdges(temps.Min(), temps.Max(), len(TemperatureLabels))

	out := make([]TemperatureBand, 0, len(TemperatureLabels))
	for i, label := range TemperatureLabels {
		lo, hi := edges[i], edges[i+1]
		sub := daily.
			Filter(dataframe.F{Colname: dataset.ColTemp, Comparator: series.Greater, Comparando: lo}).
			Filter(dataframe.F{Colname: dataset.ColTemp, Comparator: series.LessEq, Comparando: hi})
		mean, n, err := meanCount(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, TemperatureBand{Label: label, Low: lo, High: hi, Days: n, Mean: mean})
	}
	return out, nil
}

func binEdges(lo, hi float64, n int) []float64 {
	if lo == hi {
		adj := 0.001
		if lo != 0 {
			adj = 0.001 * math.Abs(lo)
		}
		lo, hi = lo-adj, hi+adj
		return linspace(lo, hi, n+1)
	}
	edges := linspace(lo, hi, n+1)
	edges[0] -= (hi - lo) * 0.001
	return edges
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

// meanCount returns the mean cnt of df and its row count; an empty frame has
// mean 0.
func meanCount(df dataframe.DataFrame) (float64, int, error) {
	if df.Err != nil {
		return 0, 0, df.Err
	}
	if df.Nrow() == 0 {
		return 0, 0, nil
	}
	return df.Col(dataset.ColCount).Mean(), df.Nrow(), nil
}

func uniqueSorted(vals []int) []int {
	seen := make(map[int]bool, len(vals))
	out := []int{}
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
