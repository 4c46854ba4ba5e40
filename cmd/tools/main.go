package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/logging"
)

var version = "dev"
var appName = "bikeshare-tools"

const usage = `usage: %s <command> [flags]
  migrate  apply pending schema migrations
  import   load DAY_CSV and HOUR_CSV into the SQLite database
  summary  print the dashboard aggregates for the configured data source
  publish  send the CSV rows as MQTT rental messages (-limit, -interval)
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "env file: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg, version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "migrate":
		err = runMigrate(ctx, cfg, os.Stdout)
	case "import":
		err = runImport(ctx, cfg, os.Stdout)
	case "summary":
		err = runSummary(ctx, cfg, os.Stdout)
	case "publish":
		err = runPublish(ctx, cfg, os.Args[2:], os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		color.New(color.FgRed).Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}
