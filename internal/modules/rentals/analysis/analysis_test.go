package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"

	"bikeshare-dashboard/internal/modules/rentals/dataset"
	"bikeshare-dashboard/internal/modules/rentals/types"
)

func day(d string, season, weather, weekday int, temp float64, cnt int) types.DailyRecord {
	t, err := time.Parse(types.DateLayout, d)
	if err != nil {
		panic(err)
	}
	return types.DailyRecord{Date: t, Season: season, Weather: weather, Weekday: weekday, Temp: temp, Count: cnt}
}

func date(s string) time.Time {
	t, _ := time.Parse(types.DateLayout, s)
	return t
}

func sampleDaily() dataframe.DataFrame {
	return dataset.FromRecords([]types.DailyRecord{
		day("2011-01-01", 1, 2, 6, 10, 100),
		day("2011-01-02", 1, 1, 0, 20, 200),
		day("2011-01-03", 2, 1, 1, 30, 300),
		day("2011-01-04", 3, 3, 2, 45, 400),
		day("2011-01-05", 3, 1, 1, 60, 500),
	}, nil).Daily
}

func counts(t *testing.T, df dataframe.DataFrame) []int {
	t.Helper()
	v, err := df.Col(dataset.ColCount).Int()
	if err != nil {
		t.Fatalf("cnt column: %v", err)
	}
	return v
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterRange(t *testing.T) {
	tests := []struct {
		name string
		f    RangeFilter
		want []int
	}{
		{
			name: "all selected",
			f:    RangeFilter{Start: date("2011-01-01"), End: date("2011-01-05"), Seasons: []int{1, 2, 3, 4}, Weathers: []int{1, 2, 3, 4}},
			want: []int{100, 200, 300, 400, 500},
		},
		{
			name: "range and membership",
			f:    RangeFilter{Start: date("2011-01-02"), End: date("2011-01-04"), Seasons: []int{1, 2}, Weathers: []int{1}},
			want: []int{200, 300},
		},
		{
			name: "single day",
			f:    RangeFilter{Start: date("2011-01-04"), End: date("2011-01-04"), Seasons: []int{3}, Weathers: []int{3}},
			want: []int{400},
		},
		{
			name: "no seasons selected",
			f:    RangeFilter{Start: date("2011-01-01"), End: date("2011-01-05"), Weathers: []int{1, 2, 3}},
			want: []int{},
		},
		{
			name: "no weathers selected",
			f:    RangeFilter{Start: date("2011-01-01"), End: date("2011-01-05"), Seasons: []int{1, 2, 3}, Weathers: []int{}},
			want: []int{},
		},
		{
			name: "start after end",
			f:    RangeFilter{Start: date("2011-01-05"), End: date("2011-01-01"), Seasons: []int{1, 2, 3}, Weathers: []int{1, 2, 3}},
			want: []int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterRange(sampleDaily(), tt.f)
			if err != nil {
				t.Fatalf("FilterRange() error = %v", err)
			}
			if c := counts(t, got); !equalInts(c, tt.want) {
				t.Errorf("cnt = %v; want %v", c, tt.want)
			}
		})
	}
}

func TestFilterChoice(t *testing.T) {
	got, err := FilterChoice(sampleDaily(), ChoiceFilter{Season: 3, Weather: 1})
	if err != nil {
		t.Fatalf("FilterChoice() error = %v", err)
	}
	if c := counts(t, got); !equalInts(c, []int{500}) {
		t.Errorf("cnt = %v; want [500]", c)
	}

	got, err = FilterChoice(sampleDaily(), ChoiceFilter{Season: 4, Weather: 1})
	if err != nil {
		t.Fatalf("FilterChoice() error = %v", err)
	}
	if got.Nrow() != 0 {
		t.Errorf("Nrow() = %d; want 0", got.Nrow())
	}
}

func TestFilterChoice_hourly(t *testing.T) {
	hourly := dataset.FromRecords(nil, []types.HourlyRecord{
		{Date: date("2011-01-01"), Hour: 0, Season: 1, Weather: 1, Count: 5},
		{Date: date("2011-01-01"), Hour: 1, Season: 1, Weather: 2, Count: 6},
	}).Hourly
	got, err := FilterChoice(hourly, ChoiceFilter{Season: 1, Weather: 2})
	if err != nil {
		t.Fatalf("FilterChoice() error = %v", err)
	}
	if c := counts(t, got); !equalInts(c, []int{6}) {
		t.Errorf("cnt = %v; want [6]", c)
	}
}

func TestOptions_firstAppearanceOrder(t *testing.T) {
	daily := dataset.FromRecords([]types.DailyRecord{
		day("2011-01-01", 3, 2, 0, 1, 1),
		day("2011-01-02", 9, 1, 0, 1, 1),
		day("2011-01-03", 1, 2, 0, 1, 1),
		day("2011-01-04", 3, 3, 0, 1, 1),
	}, nil).Daily

	seasons, err := SeasonOptions(daily)
	if err != nil {
		t.Fatalf("SeasonOptions() error = %v", err)
	}
	want := []types.Option{{Code: 3, Label: "Summer"}, {Code: 1, Label: "Winter"}}
	if len(seasons) != len(want) || seasons[0] != want[0] || seasons[1] != want[1] {
		t.Errorf("SeasonOptions() = %v; want %v", seasons, want)
	}

	weathers, err := WeatherOptions(daily)
	if err != nil {
		t.Fatalf("WeatherOptions() error = %v", err)
	}
	if got := types.Labels(weathers); len(got) != 3 || got[0] != "Cloudy" || got[1] != "Clear" || got[2] != "Light Rain" {
		t.Errorf("WeatherOptions() labels = %v", got)
	}
}

func TestDateBounds(t *testing.T) {
	start, end, err := DateBounds(sampleDaily())
	if err != nil {
		t.Fatalf("DateBounds() error = %v", err)
	}
	if !start.Equal(date("2011-01-01")) || !end.Equal(date("2011-01-05")) {
		t.Errorf("DateBounds() = %v, %v", start, end)
	}

	_, _, err = DateBounds(dataset.FromRecords(nil, nil).Daily)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("DateBounds(empty) error = %v; want ErrNoData", err)
	}
}

func TestHourlyPattern(t *testing.T) {
	hourly := dataset.FromRecords(nil, []types.HourlyRecord{
		{Date: date("2011-01-01"), Hour: 0, Count: 10},
		{Date: date("2011-01-02"), Hour: 0, Count: 20},
		{Date: date("2011-01-01"), Hour: 5, Count: 7},
		{Date: date("2011-01-01"), Hour: 2, Count: 4},
	}).Hourly

	got, err := HourlyPattern(hourly)
	if err != nil {
		t.Fatalf("HourlyPattern() error = %v", err)
	}
	want := []HourPoint{{Hour: 0, Mean: 15}, {Hour: 2, Mean: 4}, {Hour: 5, Mean: 7}}
	if len(got) != len(want) {
		t.Fatalf("HourlyPattern() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %v; want %v", i, got[i], want[i])
		}
	}

	empty, err := HourlyPattern(dataset.FromRecords(nil, nil).Hourly)
	if err != nil || len(empty) != 0 {
		t.Errorf("HourlyPattern(empty) = %v, %v; want empty", empty, err)
	}
}

func TestDayTypeShares(t *testing.T) {
	got, err := DayTypeShares(sampleDaily())
	if err != nil {
		t.Fatalf("DayTypeShares() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("DayTypeShares() = %v; want 2 entries", got)
	}
	if got[0].Label != DayTypeWeekday || got[0].Days != 4 || got[0].PercentLabel() != "80.0%" {
		t.Errorf("first = %+v (%s)", got[0], got[0].PercentLabel())
	}
	if got[1].Label != DayTypeWeekend || got[1].Days != 1 || got[1].PercentLabel() != "20.0%" {
		t.Errorf("second = %+v (%s)", got[1], got[1].PercentLabel())
	}
}

func TestDayTypeShares_edgeCases(t *testing.T) {
	weekendOnly := dataset.FromRecords([]types.DailyRecord{
		day("2011-01-01", 1, 1, 6, 1, 1),
		day("2011-01-07", 1, 1, 5, 1, 1),
	}, nil).Daily
	got, err := DayTypeShares(weekendOnly)
	if err != nil {
		t.Fatalf("DayTypeShares() error = %v", err)
	}
	if len(got) != 1 || got[0].Label != DayTypeWeekend || got[0].Percent != 100 {
		t.Errorf("DayTypeShares(weekend only) = %+v", got)
	}

	tie := dataset.FromRecords([]types.DailyRecord{
		day("2011-01-01", 1, 1, 6, 1, 1),
		day("2011-01-03", 1, 1, 1, 1, 1),
	}, nil).Daily
	got, err = DayTypeShares(tie)
	if err != nil {
		t.Fatalf("DayTypeShares() error = %v", err)
	}
	if len(got) != 2 || got[0].Label != DayTypeWeekday {
		t.Errorf("DayTypeShares(tie) = %+v; want Weekday first", got)
	}

	got, err = DayTypeShares(dataset.FromRecords(nil, nil).Daily)
	if err != nil || len(got) != 0 {
		t.Errorf("DayTypeShares(empty) = %v, %v", got, err)
	}
}

func TestWeekdayAverages(t *testing.T) {
	got, err := WeekdayAverages(sampleDaily())
	if err != nil {
		t.Fatalf("WeekdayAverages() error = %v", err)
	}
	want := []WeekdayAverage{
		{Label: "Monday", Days: 2, Mean: 400},
		{Label: "Tuesday", Days: 1, Mean: 400},
		{Label: "Wednesday"},
		{Label: "Thursday"},
		{Label: "Friday"},
		{Label: "Saturday", Days: 1, Mean: 100},
		{Label: "Sunday", Days: 1, Mean: 200},
	}
	if len(got) != len(want) {
		t.Fatalf("WeekdayAverages() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestTemperatureBands(t *testing.T) {
	got, err := TemperatureBands(sampleDaily())
	if err != nil {
		t.Fatalf("TemperatureBands() error = %v", err)
	}
	want := []struct {
		label string
		days  int
		mean  float64
	}{
		{"Very Cold", 2, 150},
		{"Cold", 1, 300},
		{"Mild", 0, 0},
		{"Warm", 1, 400},
		{"Hot", 1, 500},
	}
	if len(got) != len(want) {
		t.Fatalf("TemperatureBands() = %v", got)
	}
	for i, w := range want {
		if got[i].Label != w.label || got[i].Days != w.days || got[i].Mean != w.mean {
			t.Errorf("band %d = %+v; want %+v", i, got[i], w)
		}
	}
	if got[0].Low >= 10 || math.Abs(got[0].Low-(10-0.05)) > 1e-9 {
		t.Errorf("lowest edge = %v; want 9.95", got[0].Low)
	}
	if got[4].High != 60 {
		t.Errorf("highest edge = %v; want 60", got[4].High)
	}
}

func TestTemperatureBands_constantTemperature(t *testing.T) {
	for _, temp := range []float64{0.5, 0} {
		daily := dataset.FromRecords([]types.DailyRecord{
			day("2011-01-01", 1, 1, 1, temp, 10),
			day("2011-01-02", 1, 1, 2, temp, 30),
		}, nil).Daily
		got, err := TemperatureBands(daily)
		if err != nil {
			t.Fatalf("TemperatureBands() error = %v", err)
		}
		total := 0
		for _, b := range got {
			total += b.Days
		}
		if total != 2 {
			t.Errorf("temp %v: days across bands = %d; want 2 (%+v)", temp, total, got)
		}
		if got[2].Days != 2 || got[2].Mean != 20 {
			t.Errorf("temp %v: middle band = %+v; want 2 days mean 20", temp, got[2])
		}
	}
}

func TestTemperatureBands_empty(t *testing.T) {
	got, err := TemperatureBands(dataset.FromRecords(nil, nil).Daily)
	if err != nil || len(got) != 0 {
		t.Errorf("TemperatureBands(empty) = %v, %v", got, err)
	}
}

func TestTable(t *testing.T) {
	daily := dataset.FromRecords([]types.DailyRecord{
		day("2011-01-01", 1, 2, 6, 10, 100),
		day("2011-01-02", 7, 1, 0, 20, 200),
	}, nil).Daily

	got, err := Table(daily)
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	want := []TableRow{
		{Date: "2011-01-01", Season: "Winter", Weather: "Cloudy", Count: 100},
		{Date: "2011-01-02", Season: "Unknown", Weather: "Clear", Count: 200},
	}
	if len(got) != len(want) {
		t.Fatalf("Table() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}
