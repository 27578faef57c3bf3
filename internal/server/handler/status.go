package handler

import (
	"net/http"
	"time"

	"github.com/fablestreet/marketsim/internal/domain"
)

// ForecastSource exposes the pending econ event forecast for the status
// endpoint.
type ForecastSource interface {
	PredictedEvent() *domain.PredictedEconEvent
}

// ClientCounter reports connected live-feed clients. Nil when the feed is
// disabled.
type ClientCounter interface {
	ClientCount() int
}

// StatusHandler serves engine status for dashboards and operators.
type StatusHandler struct {
	profile   string
	forecast  ForecastSource
	feed      ClientCounter
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler for the given engine profile.
func NewStatusHandler(profile string, forecast ForecastSource, feed ClientCounter) *StatusHandler {
	return &StatusHandler{
		profile:   profile,
		forecast:  forecast,
		feed:      feed,
		startedAt: time.Now().UTC(),
	}
}

// GetStatus responds with the engine profile, uptime, pending forecast,
// and live-feed client count.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"profile":       h.profile,
		"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
	}

	if h.forecast != nil {
		status["predictedEvent"] = h.forecast.PredictedEvent()
	}
	if h.feed != nil {
		status["feedClients"] = h.feed.ClientCount()
	}

	writeJSON(w, http.StatusOK, status)
}
