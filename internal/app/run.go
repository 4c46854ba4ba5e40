package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bikeshare-dashboard/internal/cache"
	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/db"
	"bikeshare-dashboard/internal/httpapi"
	"bikeshare-dashboard/internal/migrate"
	"bikeshare-dashboard/internal/modules/rentals"
	"bikeshare-dashboard/internal/modules/rentals/service"
	"bikeshare-dashboard/internal/modules/rentals/views"
	"bikeshare-dashboard/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"dataSource", cfg.DataSource,
		"dayCSV", cfg.DayCSVPath,
		"hourCSV", cfg.HourCSVPath,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"redis", cfg.RedisURL != "",
		"cacheTTL", cfg.CacheTTL,
		"cacheMaxEntries", cfg.CacheMaxEntries,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	var dbConn *sql.DB
	if cfg.DataSource == config.DataSourceSQLite {
		var err error
		dbConn, err = openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(dbConn); closeErr != nil {
				slog.Error("db close", "error", closeErr)
			}
		}()
	}

	provider, repo, err := rentals.NewSource(cfg, dbConn)
	if err != nil {
		return err
	}

	reportCache, err := cache.New(ctx, cfg.RedisURL, cfg.CacheMaxEntries)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := reportCache.Close(); closeErr != nil {
			slog.Error("cache close", "error", closeErr)
		}
	}()

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	health := httpapi.HealthDeps{DB: dbConn}
	if redisCache, ok := reportCache.(*cache.Redis); ok {
		health.Redis = redisCache
	}

	svc := service.NewService(provider, repo, reportCache, cfg.CacheTTL, slog.Default().With("component", "report"))

	// Set the MQTT handler before Connect so the subscription exists when the
	// broker replays queued messages right after CONNACK.
	var subscriber *mqtt.Subscriber
	if cfg.MQTTEnabled() {
		subscriber, err = mqtt.NewSubscriber(cfg, slog.Default().With("component", "mqtt"))
		if err != nil {
			return err
		}
		health.MQTT = subscriber
	}

	mux := httpapi.NewMux(cfg.StaticDir, health)
	if subscriber != nil {
		rentals.RegisterFeature(mux, svc, subscriber)

		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		rentals.RegisterFeature(mux, svc, nil)
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		slog.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

func openDatabase(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dbConn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	applied, err := migrate.Run(ctx, dbConn)
	if err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}
	if len(applied) > 0 {
		slog.Info("migrations applied", "versions", applied)
	}

	var ok int
	if err := dbConn.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}
	if ok != 1 {
		_ = db.Close(dbConn)
		return nil, errors.New("database connection failed")
	}
	slog.Info("database connection successful")
	return dbConn, nil
}
