package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"bikeshare-dashboard/internal/utils"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type connectionChecker interface {
	IsConnected() bool
}

// HealthDeps lists what /healthz checks. Nil members are skipped: DB is nil
// with the csv source, Redis without REDIS_URL and MQTT when ingestion is off.
type HealthDeps struct {
	DB    *sql.DB
	Redis pinger
	MQTT  connectionChecker
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	deps HealthDeps
}

func NewHealthchecker(deps HealthDeps) healthchecker {
	return &healthcheckerImpl{deps: deps}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "ok"}
	if h.deps.DB != nil {
		var ok int
		if err := h.deps.DB.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
			slog.Error("failed to check database connectivity", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
			return
		}
		body["database"] = "ok"
	}
	if h.deps.Redis != nil {
		if err := h.deps.Redis.Ping(ctx); err != nil {
			slog.Error("failed to check redis connectivity", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to check redis connectivity")
			return
		}
		body["redis"] = "ok"
	}
	// MQTT is reported only; the dashboard keeps serving without it.
	if h.deps.MQTT != nil {
		if h.deps.MQTT.IsConnected() {
			body["mqtt"] = "connected"
		} else {
			body["mqtt"] = "disconnected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func registerHealthcheck(mux *http.ServeMux, deps HealthDeps) {
	healthchecker := NewHealthchecker(deps)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
