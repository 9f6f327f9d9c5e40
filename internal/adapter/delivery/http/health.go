package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
)

const (
	healthStatusOK       = "OK"
	healthStatusDegraded = "DEGRADED"
	dbConnected          = "connected"
	dbDisconnected       = "disconnected"

	pingTimeout = 2 * time.Second
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type healthHandler struct {
	db        pinger
	startedAt time.Time
	now       func() time.Time
}

func newHealthHandler(db pinger, startedAt time.Time) *healthHandler {
	return &healthHandler{
		db:        db,
		startedAt: startedAt,
		now:       time.Now,
	}
}

// check reports process uptime and whether the database answers a ping.
func (h *healthHandler) check(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	resp := healthResponse{
		Status:    healthStatusOK,
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.startedAt).Seconds(),
		Database:  dbConnected,
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		resp.Status = healthStatusDegraded
		resp.Database = dbDisconnected
		status = http.StatusServiceUnavailable
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
