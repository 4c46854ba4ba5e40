package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/oklog/ulid/v2"

	"bikeshare-dashboard/internal/cache"
	"bikeshare-dashboard/internal/modules/rentals/analysis"
	"bikeshare-dashboard/internal/modules/rentals/charts"
	"bikeshare-dashboard/internal/modules/rentals/dataset"
	"bikeshare-dashboard/internal/modules/rentals/repository"
	"bikeshare-dashboard/internal/modules/rentals/types"
	"bikeshare-dashboard/internal/mqtt"
)

// ErrReadOnly is returned by Ingest when the rentals come from CSV files.
var ErrReadOnly = errors.New("rentals are read-only with the csv data source")

type Service struct {
	provider dataset.Provider
	repo     repository.RentalsRepository
	cache    cache.Cache
	ttl      time.Duration
	logger   *slog.Logger

	// epoch keeps keys of different processes apart in a shared Redis.
	epoch      string
	generation atomic.Uint64
	now        func() time.Time
}

// NewService wires the report builder. repo may be nil when the data comes
// from CSV files; Ingest then fails with ErrReadOnly.
func NewService(provider dataset.Provider, repo repository.RentalsRepository, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		repo:     repo,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
		epoch:    ulid.Make().String(),
		now:      time.Now,
	}
}

// Generation counts ingested rows since startup.
func (s *Service) Generation() uint64 {
	return s.generation.Load()
}

// BuildRange builds the range dashboard report. The bool reports a cache hit.
func (s *Service) BuildRange(ctx context.Context, q RangeQuery) (*Report, bool, error) {
	key := s.cacheKey(VariantRange, rangeKey(q))
	var cached Report
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	ds, err := s.provider.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	opts, err := options(ds.Daily)
	if err != nil {
		return nil, false, err
	}

	filter := RangeFilterFor(q, opts)
	state := FilterState{Seasons: filter.Seasons, Weathers: filter.Weathers}
	if !filter.Start.IsZero() {
		state.Start = filter.Start.Format(types.DateLayout)
	}
	if !filter.End.IsZero() {
		state.End = filter.End.Format(types.DateLayout)
	}

	report := &Report{
		Variant:  VariantRange,
		Warnings: []string{},
		Filter:   state,
		Options:  opts,
	}
	if filter.Start.After(filter.End) {
		report.Warnings = append(report.Warnings, WarningStartAfterEnd)
	}

	daily, err := analysis.FilterRange(ds.Daily, filter)
	if err != nil {
		return nil, false, err
	}
	// Only the table follows the range filter; the charts describe the whole
	// dataset.
	if err := s.fill(report, daily, ds.Daily, ds.Hourly); err != nil {
		return nil, false, err
	}
	report.Summary = rangeSummary(state, opts)

	s.store(ctx, key, report)
	return report, false, nil
}

// BuildSingle builds the single-choice dashboard report. Both tables are
// filtered.
func (s *Service) BuildSingle(ctx context.Context, q SingleQuery) (*Report, bool, error) {
	key := s.cacheKey(VariantSingle, singleKey(q))
	var cached Report
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	ds, err := s.provider.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	opts, err := options(ds.Daily)
	if err != nil {
		return nil, false, err
	}

	filter := ChoiceFilterFor(q, opts)
	report := &Report{
		Variant:  VariantSingle,
		Warnings: []string{},
		Filter:   FilterState{Seasons: []int{filter.Season}, Weathers: []int{filter.Weather}},
		Options:  opts,
	}

	daily, err := analysis.FilterChoice(ds.Daily, filter)
	if err != nil {
		return nil, false, err
	}
	hourly, err := analysis.FilterChoice(ds.Hourly, filter)
	if err != nil {
		return nil, false, err
	}
	if err := s.fill(report, daily, daily, hourly); err != nil {
		return nil, false, err
	}
	report.Summary = singleSummary(filter)

	s.store(ctx, key, report)
	return report, false, nil
}

// Options returns the filter choices and date bounds of the current data.
func (s *Service) Options(ctx context.Context) (*Options, error) {
	ds, err := s.provider.Load(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := options(ds.Daily)
	if err != nil {
		return nil, err
	}
	return &opts, nil
}

// fill builds the table from rows and the charts from daily and hourly.
func (s *Service) fill(r *Report, rows, daily, hourly dataframe.DataFrame) error {
	var err error
	if r.Rows, err = analysis.Table(rows); err != nil {
		return err
	}
	if r.Hourly, err = analysis.HourlyPattern(hourly); err != nil {
		return err
	}
	if r.DayTypes, err = analysis.DayTypeShares(daily); err != nil {
		return err
	}
	if r.Weekdays, err = analysis.WeekdayAverages(daily); err != nil {
		return err
	}
	if r.Temperatures, err = analysis.TemperatureBands(daily); err != nil {
		return err
	}
	r.Days = len(r.Rows)
	r.GeneratedAt = s.now().UTC()
	return nil
}

func (s *Service) store(ctx context.Context, key string, r *Report) {
	if err := s.cache.Set(ctx, key, r, s.ttl); err != nil {
		s.logger.Warn("cache report failed", "key", key, "error", err)
	}
}

func (s *Service) cacheKey(v Variant, filter string) string {
	return fmt.Sprintf("bikeshare:report:%s:%d:%s:%s", s.epoch, s.generation.Load(), v, filter)
}

// Ingest stores the row carried by msg and invalidates cached reports.
func (s *Service) Ingest(ctx context.Context, msg types.RentalMessage) error {
	if s.repo == nil {
		return ErrReadOnly
	}
	day, err := time.Parse(types.DateLayout, msg.Date)
	if err != nil {
		return fmt.Errorf("parse dteday %q: %w", msg.Date, err)
	}

	switch msg.Kind {
	case types.KindDaily:
		err = s.repo.UpsertDaily(ctx, types.DailyRecord{
			Date: day, Season: msg.Season, Weather: msg.Weather,
			Weekday: msg.Weekday, Temp: msg.Temp, Count: msg.Count,
		})
	case types.KindHourly:
		if msg.Hour == nil {
			return fmt.Errorf("hourly message for %s without hr", msg.Date)
		}
		err = s.repo.UpsertHourly(ctx, types.HourlyRecord{
			Date: day, Hour: *msg.Hour, Season: msg.Season, Weather: msg.Weather,
			Weekday: msg.Weekday, Temp: msg.Temp, Count: msg.Count,
		})
	default:
		return fmt.Errorf("unknown message kind %q", msg.Kind)
	}
	if err != nil {
		return err
	}
	s.generation.Add(1)
	return nil
}

// Register attaches the ingestion handler to the MQTT subscriber.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	subscriber.SetMessageHandler(func(msg types.RentalMessage) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Ingest(ctx, msg)
	})
}

// RenderChart draws one of the report's charts.
func RenderChart(w io.Writer, r *Report, name charts.Name, f charts.Format) error {
	switch name {
	case charts.Hourly:
		return charts.RenderHourly(w, f, r.Hourly)
	case charts.DayType:
		return charts.RenderDayType(w, f, r.DayTypes)
	case charts.Weekday:
		return charts.RenderWeekday(w, f, r.Weekdays)
	case charts.Temperature:
		return charts.RenderTemperature(w, f, r.Temperatures)
	default:
		return fmt.Errorf("unknown chart %q", name)
	}
}

func options(daily dataframe.DataFrame) (Options, error) {
	seasons, err := analysis.SeasonOptions(daily)
	if err != nil {
		return Options{}, err
	}
	weathers, err := analysis.WeatherOptions(daily)
	if err != nil {
		return Options{}, err
	}
	opts := Options{Seasons: seasons, Weathers: weathers}
	lo, hi, err := analysis.DateBounds(daily)
	switch {
	case errors.Is(err, analysis.ErrNoData):
	case err != nil:
		return Options{}, err
	default:
		opts.MinDate = lo.Format(types.DateLayout)
		opts.MaxDate = hi.Format(types.DateLayout)
	}
	return opts, nil
}

// RangeFilterFor applies the range defaults to q.
func RangeFilterFor(q RangeQuery, opts Options) analysis.RangeFilter {
	f := analysis.RangeFilter{Seasons: q.Seasons, Weathers: q.Weathers}
	if !q.Filtered {
		if len(f.Seasons) == 0 {
			f.Seasons = codes(opts.Seasons)
		}
		if len(f.Weathers) == 0 {
			f.Weathers = codes(opts.Weathers)
		}
	}
	if f.Seasons == nil {
		f.Seasons = []int{}
	}
	if f.Weathers == nil {
		f.Weathers = []int{}
	}
	if q.Start != nil {
		f.Start = *q.Start
	} else if t, err := time.Parse(types.DateLayout, opts.MinDate); err == nil {
		f.Start = t
	}
	if q.End != nil {
		f.End = *q.End
	} else if t, err := time.Parse(types.DateLayout, opts.MaxDate); err == nil {
		f.End = t
	}
	return f
}

// ChoiceFilterFor applies the single-choice defaults to q.
func ChoiceFilterFor(q SingleQuery, opts Options) analysis.ChoiceFilter {
	var f analysis.ChoiceFilter
	if q.Season != nil {
		f.Season = *q.Season
	} else if len(opts.Seasons) > 0 {
		f.Season = opts.Seasons[0].Code
	}
	if q.Weather != nil {
		f.Weather = *q.Weather
	} else if len(opts.Weathers) > 0 {
		f.Weather = opts.Weathers[0].Code
	}
	return f
}

func codes(opts []types.Option) []int {
	out := make([]int, len(opts))
	for i, o := range opts {
		out[i] = o.Code
	}
	return out
}

func rangeSummary(f FilterState, opts Options) string {
	if opts.MinDate == "" {
		return "No rental data has been loaded."
	}
	return fmt.Sprintf("Showing data from %s to %s with seasons %s and weather %s.",
		f.Start, f.End, labelList(f.Seasons, types.SeasonLabel), labelList(f.Weathers, types.WeatherLabel))
}

func singleSummary(f analysis.ChoiceFilter) string {
	return fmt.Sprintf("Showing data for season %s and weather %s.",
		labelList([]int{f.Season}, types.SeasonLabel), labelList([]int{f.Weather}, types.WeatherLabel))
}

func labelList(vals []int, label func(int) (string, bool)) string {
	if len(vals) == 0 {
		return "(none)"
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if l, ok := label(v); ok {
			out = append(out, l)
		} else {
			out = append(out, strconv.Itoa(v))
		}
	}
	return strings.Join(out, ", ")
}

func rangeKey(q RangeQuery) string {
	return strings.Join([]string{
		datePart(q.Start),
		datePart(q.End),
		intsPart(q.Seasons),
		intsPart(q.Weathers),
		strconv.FormatBool(q.Filtered),
	}, "|")
}

func singleKey(q SingleQuery) string {
	return intPart(q.Season) + "|" + intPart(q.Weather)
}

func datePart(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(types.DateLayout)
}

func intPart(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// intsPart sorts and deduplicates so that selection order does not split the
// cache.
func intsPart(vals []int) string {
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
