// internal/handlers/web/health.go
package web

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"trailhub/internal/broadcast"
)

// HealthHandler reports the state of the service's dependencies.
type HealthHandler struct {
	db    *sql.DB
	redis *broadcast.RedisTransport
	hub   *broadcast.Hub
}

// NewHealthHandler creates a health handler. redis may be nil when the
// redis transport is unconfigured.
func NewHealthHandler(db *sql.DB, redis *broadcast.RedisTransport, hub *broadcast.Hub) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
		hub:   hub,
	}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]interface{}{
		"ws_clients": h.hub.ClientCount(),
	}

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
