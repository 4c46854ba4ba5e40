package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

var allEnv = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "STATIC_DIR",
	"DATA_SOURCE", "DAY_CSV", "HOUR_CSV",
	"DB_DRIVER", "DB_DSN", "SQLITE_PATH", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "SQL_LOG",
	"REDIS_URL", "CACHE_TTL", "CACHE_MAX_ENTRIES",
	"MQTT_BROKER", "MQTT_PORT", "MQTT_TOPIC", "MQTT_CLIENT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.DataSource != DataSourceCSV {
		t.Errorf("DataSource = %q, want %q", got.DataSource, DataSourceCSV)
	}
	if got.DayCSVPath != "data/day.csv" || got.HourCSVPath != "data/hour.csv" {
		t.Errorf("csv paths = %q, %q", got.DayCSVPath, got.HourCSVPath)
	}
	if got.SQLiteDriver != "sqlite3" {
		t.Errorf("SQLiteDriver = %q, want sqlite3", got.SQLiteDriver)
	}
	if got.SQLiteMaxOpenConns != 1 || got.SQLiteMaxIdleConns != 1 {
		t.Errorf("pool = %d/%d, want 1/1", got.SQLiteMaxOpenConns, got.SQLiteMaxIdleConns)
	}
	if got.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", got.CacheTTL)
	}
	if got.CacheMaxEntries != 512 {
		t.Errorf("CacheMaxEntries = %d, want 512", got.CacheMaxEntries)
	}
	if got.MQTTPort != 1883 || got.MQTTTopic != "bikeshare/rentals" {
		t.Errorf("mqtt = %d %q", got.MQTTPort, got.MQTTTopic)
	}
	if !strings.HasPrefix(got.MQTTClientID, "bikeshare-server-") {
		t.Errorf("MQTTClientID = %q, want bikeshare-server- prefix", got.MQTTClientID)
	}
	if got.MQTTEnabled() {
		t.Error("MQTTEnabled() = true with no broker")
	}
}

func TestLoadFromEnv_AppEnv(t *testing.T) {
	tests := []struct {
		name    string
		appEnv  string
		want    string
		wantErr bool
	}{
		{name: "dev", appEnv: "dev", want: "dev"},
		{name: "prod with whitespace", appEnv: "\nprod\t", want: "prod"},
		{name: "staging", appEnv: "staging", wantErr: true},
		{name: "uppercase invalid", appEnv: "DEV", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)

			got, err := LoadFromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatal("LoadFromEnv() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.AppEnv != tt.want {
				t.Errorf("AppEnv = %q, want %q", got.AppEnv, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_DataSource(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "csv", want: DataSourceCSV},
		{in: " SQLite ", want: DataSourceSQLite},
		{in: "postgres", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATA_SOURCE", tt.in)

			got, err := LoadFromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatal("LoadFromEnv() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v", err)
			}
			if got.DataSource != tt.want {
				t.Errorf("DataSource = %q, want %q", got.DataSource, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_InvalidNumbers(t *testing.T) {
	tests := []struct {
		key string
		val string
	}{
		{key: "DB_MAX_OPEN_CONNS", val: "many"},
		{key: "DB_MAX_IDLE_CONNS", val: "1.5"},
		{key: "DB_CONN_MAX_LIFETIME", val: "forever"},
		{key: "SQL_LOG", val: "sometimes"},
		{key: "CACHE_TTL", val: "soon"},
		{key: "CACHE_TTL", val: "0s"},
		{key: "CACHE_MAX_ENTRIES", val: "lots"},
		{key: "CACHE_MAX_ENTRIES", val: "0"},
		{key: "MQTT_PORT", val: "http"},
		{key: "MQTT_PORT", val: "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_MQTTEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("MQTT_BROKER", "localhost")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got.MQTTEnabled() {
		t.Error("MQTTEnabled() = true for csv data source; want false")
	}

	t.Setenv("DATA_SOURCE", "sqlite")
	got, err = LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if !got.MQTTEnabled() {
		t.Error("MQTTEnabled() = false for sqlite with broker; want true")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: "DeBuG", want: slog.LevelDebug},
		{in: "  error \n", want: slog.LevelError},
		{in: "", want: slog.LevelInfo, wantErr: true},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
