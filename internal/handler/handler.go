package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/angeloszaimis/haproxy-status/internal/verdict"
)

// StatusSource produces the verdict served by the handler.
type StatusSource interface {
	Status(ctx context.Context) verdict.Verdict
	Ping() string
}

type StatusHandler struct {
	logger              *slog.Logger
	source              StatusSource
	notFoundOnAdminDown bool
}

// NewStatusHandler returns a handler for source. With notFoundOnAdminDown set,
// an admin-down verdict is answered with 404 so that load balancers that only
// look at the response code take the node out of rotation.
func NewStatusHandler(logger *slog.Logger, source StatusSource, notFoundOnAdminDown bool) *StatusHandler {
	return &StatusHandler{
		logger:              logger,
		source:              source,
		notFoundOnAdminDown: notFoundOnAdminDown,
	}
}

// Status serves the current verdict as JSON.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	v := h.source.Status(r.Context())

	h.logger.Debug("Status response",
		slog.String("from", extractClientIP(r)),
		slog.String("status", string(v.Status)),
		slog.String("reason", v.Reason),
		slog.Int64("ttl", v.TTL))

	if v.Status == verdict.StatusAdminDown && h.notFoundOnAdminDown {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode status", slog.Any("err", err))
	}
}

// Ping answers liveness probes.
func (h *StatusHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, h.source.Ping())
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
