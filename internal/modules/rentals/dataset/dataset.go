package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-dashboard/internal/modules/rentals/types"
)

const (
	ColDate    = "dteday"
	ColHour    = "hr"
	ColSeason  = "season"
	ColWeather = "weathersit"
	ColWeekday = "weekday"
	ColTemp    = "temp"
	ColCount   = "cnt"
)

var (
	DailyColumns  = []string{ColDate, ColSeason, ColWeather, ColWeekday, ColTemp, ColCount}
	HourlyColumns = []string{ColDate, ColHour, ColSeason, ColWeather, ColWeekday, ColTemp, ColCount}
)

var columnTypes = map[string]series.Type{
	ColDate:    series.String,
	ColHour:    series.Int,
	ColSeason:  series.Int,
	ColWeather: series.Int,
	ColWeekday: series.Int,
	ColTemp:    series.Float,
	ColCount:   series.Int,
}

var dateLayouts = []string{types.DateLayout, "2006/01/02", "01/02/2006", time.RFC3339}

// Dataset holds the two rental tables. Frames are treated as immutable; every
// gota operation used on them returns a new frame.
type Dataset struct {
	Daily  dataframe.DataFrame
	Hourly dataframe.DataFrame
}

// ReadDaily parses a daily CSV. Only the columns in DailyColumns are kept.
func ReadDaily(r io.Reader) (dataframe.DataFrame, error) {
	return readFrame(r, DailyColumns)
}

// ReadHourly parses an hourly CSV. Only the columns in HourlyColumns are kept.
func ReadHourly(r io.Reader) (dataframe.DataFrame, error) {
	return readFrame(r, HourlyColumns)
}

// LoadFiles reads the daily and hourly CSV files.
func LoadFiles(dayPath, hourPath string) (*Dataset, error) {
	daily, err := readFile(dayPath, ReadDaily)
	if err != nil {
		return nil, err
	}
	hourly, err := readFile(hourPath, ReadHourly)
	if err != nil {
		return nil, err
	}
	return &Dataset{Daily: daily, Hourly: hourly}, nil
}

func readFile(path string, read func(io.Reader) (dataframe.DataFrame, error)) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	df, err := read(f)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read %s: %w", path, err)
	}
	return df, nil
}

func readFrame(r io.Reader, required []string) (dataframe.DataFrame, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, errors.New("missing header")
	}
	names := make(map[string]bool, len(records[0]))
	for _, n := range records[0] {
		names[n] = true
	}
	for _, c := range required {
		if !names[c] {
			return dataframe.DataFrame{}, fmt.Errorf("missing column %q", c)
		}
	}
	// gota refuses a header without rows
	if len(records) == 1 {
		return emptyFrame(required), nil
	}

	df := dataframe.LoadRecords(records, dataframe.WithTypes(columnTypes))
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	df = df.Select(required)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}

	raw := df.Col(ColDate).Records()
	dates := make([]string, len(raw))
	for i, s := range raw {
		t, err := ParseDate(s)
		if err != nil {
			// +2: header line and 1-based numbering
			return dataframe.DataFrame{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		dates[i] = t.Format(types.DateLayout)
	}
	df = df.Mutate(series.New(dates, series.String, ColDate))
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}

	if err := validate(df, required); err != nil {
		return dataframe.DataFrame{}, err
	}
	return df, nil
}

func emptyFrame(cols []string) dataframe.DataFrame {
	ss := make([]series.Series, len(cols))
	for i, c := range cols {
		ss[i] = series.New([]string{}, columnTypes[c], c)
	}
	return dataframe.New(ss...)
}

func validate(df dataframe.DataFrame, cols []string) error {
	for _, c := range cols {
		s := df.Col(c)
		switch s.Type() {
		case series.Int:
			if _, err := s.Int(); err != nil {
				return fmt.Errorf("column %q: not an integer column: %w", c, err)
			}
		case series.Float:
			if s.HasNaN() {
				return fmt.Errorf("column %q: contains non-numeric values", c)
			}
		}
	}
	return nil
}

// ParseDate accepts the date formats found in exported rental files.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FromRecords builds the dataset frames from stored records.
func FromRecords(daily []types.DailyRecord, hourly []types.HourlyRecord) *Dataset {
	n := len(daily)
	dDates, dTemp := make([]string, n), make([]float64, n)
	dSeason, dWeather, dWeek, dCount := make([]int, n), make([]int, n), make([]int, n), make([]int, n)
	for i, r := range daily {
		dDates[i] = r.Date.Format(types.DateLayout)
		dSeason[i], dWeather[i], dWeek[i] = r.Season, r.Weather, r.Weekday
		dTemp[i] = r.Temp
		dCount[i] = r.Count
	}

	m := len(hourly)
	hDates, hTemp := make([]string, m), make([]float64, m)
	hHour, hSeason, hWeather, hWeek, hCount := make([]int, m), make([]int, m), make([]int, m), make([]int, m), make([]int, m)
	for i, r := range hourly {
		hDates[i] = r.Date.Format(types.DateLayout)
		hHour[i] = r.Hour
		hSeason[i], hWeather[i], hWeek[i] = r.Season, r.Weather, r.Weekday
		hTemp[i] = r.Temp
		hCount[i] = r.Count
	}

	return &Dataset{
		Daily: dataframe.New(
			series.New(dDates, series.String, ColDate),
			series.New(dSeason, series.Int, ColSeason),
			series.New(dWeather, series.Int, ColWeather),
			series.New(dWeek, series.Int, ColWeekday),
			series.New(dTemp, series.Float, ColTemp),
			series.New(dCount, series.Int, ColCount),
		),
		Hourly: dataframe.New(
			series.New(hDates, series.String, ColDate),
			series.New(hHour, series.Int, ColHour),
			series.New(hSeason, series.Int, ColSeason),
			series.New(hWeather, series.Int, ColWeather),
			series.New(hWeek, series.Int, ColWeekday),
			series.New(hTemp, series.Float, ColTemp),
			series.New(hCount, series.Int, ColCount),
		),
	}
}

// DailyRecords converts a daily frame back into records.
func DailyRecords(df dataframe.DataFrame) ([]types.DailyRecord, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	cols, err := intColumns(df, ColSeason, ColWeather, ColWeekday, ColCount)
	if err != nil {
		return nil, err
	}
	dates := df.Col(ColDate).Records()
	temps := df.Col(ColTemp).Float()

	out := make([]types.DailyRecord, df.Nrow())
	for i := range out {
		d, err := ParseDate(dates[i])
		if err != nil {
			return nil, err
		}
		out[i] = types.DailyRecord{
			Date:    d,
			Season:  cols[0][i],
			Weather: cols[1][i],
			Weekday: cols[2][i],
			Temp:    temps[i],
			Count:   cols[3][i],
		}
	}
	return out, nil
}

// HourlyRecords converts an hourly frame back into records.
func HourlyRecords(df dataframe.DataFrame) ([]types.HourlyRecord, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	cols, err := intColumns(df, ColHour, ColSeason, ColWeather, ColWeekday, ColCount)
	if err != nil {
		return nil, err
	}
	dates := df.Col(ColDate).Records()
	temps := df.Col(ColTemp).Float()

	out := make([]types.HourlyRecord, df.Nrow())
	for i := range out {
		d, err := ParseDate(dates[i])
		if err != nil {
			return nil, err
		}
		out[i] = types.HourlyRecord{
			Date:    d,
			Hour:    cols[0][i],
			Season:  cols[1][i],
			Weather: cols[2][i],
			Weekday: cols[3][i],
			Temp:    temps[i],
			Count:   cols[4][i],
		}
	}
	return out, nil
}

func intColumns(df dataframe.DataFrame, names ...string) ([][]int, error) {
	out := make([][]int, len(names))
	for i, n := range names {
		s := df.Col(n)
		if s.Err != nil {
			return nil, fmt.Errorf("column %q: %w", n, s.Err)
		}
		v, err := s.Int()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", n, err)
		}
		out[i] = v
	}
	return out, nil
}
