package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"bikeshare-dashboard/internal/modules/rentals/types"
)

//go:embed sql/get-daily.sql
var getDailySQL string

//go:embed sql/get-hourly.sql
var getHourlySQL string

//go:embed sql/upsert-daily.sql
var upsertDailySQL string

//go:embed sql/upsert-hourly.sql
var upsertHourlySQL string

//go:embed sql/get-counts.sql
var getCountsSQL string

type RentalsRepository interface {
	GetDailyRecords(ctx context.Context) ([]types.DailyRecord, error)
	GetHourlyRecords(ctx context.Context) ([]types.HourlyRecord, error)
	UpsertDaily(ctx context.Context, rec types.DailyRecord) error
	UpsertHourly(ctx context.Context, rec types.HourlyRecord) error
	ImportDaily(ctx context.Context, recs []types.DailyRecord) (int, error)
	ImportHourly(ctx context.Context, recs []types.HourlyRecord) (int, error)
	Counts(ctx context.Context) (daily int, hourly int, err error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) RentalsRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetDailyRecords(ctx context.Context) ([]types.DailyRecord, error) {
	rows, err := r.db.QueryContext(ctx, getDailySQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close daily rows", "error", err)
		}
	}()
	out := []types.DailyRecord{}
	for rows.Next() {
		var rec types.DailyRecord
		var day string
		if err := rows.Scan(&day, &rec.Season, &rec.Weather, &rec.Weekday, &rec.Temp, &rec.Count); err != nil {
			return nil, err
		}
		if rec.Date, err = parseDay(day); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetHourlyRecords(ctx context.Context) ([]types.HourlyRecord, error) {
	rows, err := r.db.QueryContext(ctx, getHourlySQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close hourly rows", "error", err)
		}
	}()
	out := []types.HourlyRecord{}
	for rows.Next() {
		var rec types.HourlyRecord
		var day string
		if err := rows.Scan(&day, &rec.Hour, &rec.Season, &rec.Weather, &rec.Weekday, &rec.Temp, &rec.Count); err != nil {
			return nil, err
		}
		if rec.Date, err = parseDay(day); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) UpsertDaily(ctx context.Context, rec types.DailyRecord) error {
	_, err := r.db.ExecContext(ctx, upsertDailySQL, dailyArgs(rec)...)
	if err != nil {
		return fmt.Errorf("upsert daily %s: %w", rec.Date.Format(types.DateLayout), err)
	}
	return nil
}

func (r *repositoryImpl) UpsertHourly(ctx context.Context, rec types.HourlyRecord) error {
	_, err := r.db.ExecContext(ctx, upsertHourlySQL, hourlyArgs(rec)...)
	if err != nil {
		return fmt.Errorf("upsert hourly %s %02d: %w", rec.Date.Format(types.DateLayout), rec.Hour, err)
	}
	return nil
}

// ImportDaily upserts recs in one transaction; on error nothing is stored.
func (r *repositoryImpl) ImportDaily(ctx context.Context, recs []types.DailyRecord) (int, error) {
	args := make([][]any, len(recs))
	for i, rec := range recs {
		args[i] = dailyArgs(rec)
	}
	return r.importRows(ctx, upsertDailySQL, args)
}

// ImportHourly upserts recs in one transaction; on error nothing is stored.
func (r *repositoryImpl) ImportHourly(ctx context.Context, recs []types.HourlyRecord) (int, error) {
	args := make([][]any, len(recs))
	for i, rec := range recs {
		args[i] = hourlyArgs(rec)
	}
	return r.importRows(ctx, upsertHourlySQL, args)
}

func (r *repositoryImpl) importRows(ctx context.Context, query string, rows [][]any) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close import statement", "error", err)
		}
	}()

	for i, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("import row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(rows), nil
}

func (r *repositoryImpl) Counts(ctx context.Context) (int, int, error) {
	var daily, hourly int
	if err := r.db.QueryRowContext(ctx, getCountsSQL).Scan(&daily, &hourly); err != nil {
		return 0, 0, err
	}
	return daily, hourly, nil
}

func dailyArgs(rec types.DailyRecord) []any {
	return []any{rec.Date.Format(types.DateLayout), rec.Season, rec.Weather, rec.Weekday, rec.Temp, rec.Count}
}

func hourlyArgs(rec types.HourlyRecord) []any {
	return []any{rec.Date.Format(types.DateLayout), rec.Hour, rec.Season, rec.Weather, rec.Weekday, rec.Temp, rec.Count}
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse dteday %q: %w", s, err)
	}
	return t, nil
}
