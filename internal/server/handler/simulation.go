package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fablestreet/marketsim/internal/domain"
)

// SimulationService defines the methods the simulation handler requires
// from the service layer.
type SimulationService interface {
	SimulateDays(ctx context.Context, req domain.SimulationRequest) (domain.SimulationResult, error)
}

// SimulationHandler serves the day-advancement endpoint.
type SimulationHandler struct {
	sim    SimulationService
	logger *slog.Logger
}

// NewSimulationHandler creates a SimulationHandler with the given service
// and logger.
func NewSimulationHandler(sim SimulationService, logger *slog.Logger) *SimulationHandler {
	return &SimulationHandler{
		sim:    sim,
		logger: logger,
	}
}

// simulateDaysRequest mirrors the wire shape. Required scalars are
// pointers so a missing field is distinguishable from a zero.
type simulateDaysRequest struct {
	Stocks            []domain.Stock      `json:"stocks"`
	Days              *int                `json:"days"`
	Predictions       []domain.Prediction `json:"predictions"`
	CurrentDay        *int                `json:"currentDay"`
	ActiveEconEffects []domain.EconEvent  `json:"activeEconEffects"`
}

// SimulateDays advances the market by the requested number of days.
// POST /simulateDays
func (h *SimulationHandler) SimulateDays(w http.ResponseWriter, r *http.Request) {
	var req simulateDaysRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Stocks) == 0 || req.Days == nil || req.CurrentDay == nil {
		writeInvalidInput(w)
		return
	}

	result, err := h.sim.SimulateDays(r.Context(), domain.SimulationRequest{
		Stocks:            req.Stocks,
		Days:              *req.Days,
		Predictions:       req.Predictions,
		CurrentDay:        *req.CurrentDay,
		ActiveEconEffects: req.ActiveEconEffects,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeInvalidInput(w)
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: simulate days failed",
			slog.Int("days", *req.Days),
			slog.Int("current_day", *req.CurrentDay),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error simulating days")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
