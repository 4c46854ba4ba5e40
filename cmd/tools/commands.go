package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"bikeshare-dashboard/internal/cache"
	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/db"
	"bikeshare-dashboard/internal/migrate"
	"bikeshare-dashboard/internal/modules/rentals"
	"bikeshare-dashboard/internal/modules/rentals/dataset"
	"bikeshare-dashboard/internal/modules/rentals/repository"
	"bikeshare-dashboard/internal/modules/rentals/service"
	"bikeshare-dashboard/internal/modules/rentals/types"
	"bikeshare-dashboard/internal/mqtt"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen)
)

func openMigrated(ctx context.Context, cfg config.Config) (*sql.DB, []string, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	applied, err := migrate.Run(ctx, conn)
	if err != nil {
		_ = db.Close(conn)
		return nil, nil, err
	}
	return conn, applied, nil
}

func runMigrate(ctx context.Context, cfg config.Config, out io.Writer) error {
	conn, applied, err := openMigrated(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	if len(applied) == 0 {
		fmt.Fprintln(out, "no pending migrations")
		return nil
	}
	for _, v := range applied {
		success.Fprintf(out, "applied %s\n", v)
	}
	return nil
}

func runImport(ctx context.Context, cfg config.Config, out io.Writer) error {
	ds, err := dataset.LoadFiles(cfg.DayCSVPath, cfg.HourCSVPath)
	if err != nil {
		return err
	}
	daily, err := dataset.DailyRecords(ds.Daily)
	if err != nil {
		return err
	}
	hourly, err := dataset.HourlyRecords(ds.Hourly)
	if err != nil {
		return err
	}

	conn, _, err := openMigrated(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	repo := repository.NewRepository(conn)
	nd, err := repo.ImportDaily(ctx, daily)
	if err != nil {
		return fmt.Errorf("import daily: %w", err)
	}
	nh, err := repo.ImportHourly(ctx, hourly)
	if err != nil {
		return fmt.Errorf("import hourly: %w", err)
	}
	totalDaily, totalHourly, err := repo.Counts(ctx)
	if err != nil {
		return err
	}
	success.Fprintf(out, "imported %d daily and %d hourly rows\n", nd, nh)
	fmt.Fprintf(out, "database now holds %d daily and %d hourly rows\n", totalDaily, totalHourly)
	return nil
}

// runSummary prints the unfiltered range report as tables.
func runSummary(ctx context.Context, cfg config.Config, out io.Writer) error {
	var conn *sql.DB
	if cfg.DataSource == config.DataSourceSQLite {
		var err error
		if conn, _, err = openMigrated(ctx, cfg); err != nil {
			return err
		}
		defer db.Close(conn)
	}
	provider, _, err := rentals.NewSource(cfg, conn)
	if err != nil {
		return err
	}
	svc := service.NewService(provider, nil, cache.NewMemory(), time.Minute, slog.Default())
	report, _, err := svc.BuildRange(ctx, service.RangeQuery{})
	if err != nil {
		return err
	}
	writeSummary(out, report)
	return nil
}

func writeSummary(out io.Writer, r *service.Report) {
	heading.Fprintln(out, r.Summary)
	fmt.Fprintf(out, "%d days\n", r.Days)

	heading.Fprintln(out, "\nMean rentals by hour")
	t := tablewriter.NewWriter(out)
	t.SetHeader([]string{"Hour", "Mean"})
	for _, p := range r.Hourly {
		t.Append([]string{strconv.Itoa(p.Hour), formatMean(p.Mean)})
	}
	t.Render()

	heading.Fprintln(out, "\nWeekdays vs weekends")
	t = tablewriter.NewWriter(out)
	t.SetHeader([]string{"Day type", "Days", "Share"})
	for _, s := range r.DayTypes {
		t.Append([]string{s.Label, strconv.Itoa(s.Days), s.PercentLabel()})
	}
	t.Render()

	heading.Fprintln(out, "\nMean rentals by day of week")
	t = tablewriter.NewWriter(out)
	t.SetHeader([]string{"Day", "Days", "Mean"})
	for _, a := range r.Weekdays {
		t.Append([]string{a.Label, strconv.Itoa(a.Days), formatMean(a.Mean)})
	}
	t.Render()

	heading.Fprintln(out, "\nMean rentals by temperature")
	t = tablewriter.NewWriter(out)
	t.SetHeader([]string{"Band", "Range", "Days", "Mean"})
	for _, b := range r.Temperatures {
		t.Append([]string{b.Label, fmt.Sprintf("%.2f - %.2f", b.Low, b.High), strconv.Itoa(b.Days), formatMean(b.Mean)})
	}
	t.Render()
}

func formatMean(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// messages turns the loaded tables into rental messages, daily rows first.
func messages(ds *dataset.Dataset) ([]types.RentalMessage, error) {
	daily, err := dataset.DailyRecords(ds.Daily)
	if err != nil {
		return nil, err
	}
	hourly, err := dataset.HourlyRecords(ds.Hourly)
	if err != nil {
		return nil, err
	}
	out := make([]types.RentalMessage, 0, len(daily)+len(hourly))
	for _, d := range daily {
		out = append(out, types.RentalMessage{
			Kind: types.KindDaily, Date: d.Date.Format(types.DateLayout),
			Season: d.Season, Weather: d.Weather, Weekday: d.Weekday, Temp: d.Temp, Count: d.Count,
		})
	}
	for _, h := range hourly {
		hour := h.Hour
		out = append(out, types.RentalMessage{
			Kind: types.KindHourly, Date: h.Date.Format(types.DateLayout), Hour: &hour,
			Season: h.Season, Weather: h.Weather, Weekday: h.Weekday, Temp: h.Temp, Count: h.Count,
		})
	}
	return out, nil
}

type publisher interface {
	Publish(msg types.RentalMessage) error
}

func runPublish(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(out)
	limit := fs.Int("limit", 0, "publish at most this many messages (0 = all)")
	interval := fs.Duration("interval", 0, "pause between messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not set")
	}

	ds, err := dataset.LoadFiles(cfg.DayCSVPath, cfg.HourCSVPath)
	if err != nil {
		return err
	}
	msgs, err := messages(ds)
	if err != nil {
		return err
	}

	pub, err := mqtt.NewPublisher(cfg, slog.Default().With("component", "mqtt"))
	if err != nil {
		return err
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = pub.Connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer pub.Disconnect()

	n, err := publishAll(ctx, pub, msgs, *limit, *interval)
	success.Fprintf(out, "published %d messages to %s\n", n, cfg.MQTTTopic)
	return err
}

func publishAll(ctx context.Context, pub publisher, msgs []types.RentalMessage, limit int, interval time.Duration) (int, error) {
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	for i, m := range msgs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := pub.Publish(m); err != nil {
			return i, fmt.Errorf("message %d (%s %s): %w", i, m.Kind, m.Date, err)
		}
		if interval > 0 && i < len(msgs)-1 {
			select {
			case <-ctx.Done():
				return i + 1, ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return len(msgs), nil
}
