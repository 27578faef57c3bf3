package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fablestreet/marketsim/internal/domain"
)

// PredictionService defines the methods the prediction handler requires
// from the service layer.
type PredictionService interface {
	PredictNews(ctx context.Context, stocks []domain.Stock, currentDay int) (domain.Prediction, error)
	PredictEconEvent(ctx context.Context, active []domain.EconEvent, currentDay int) (domain.PredictedEconEvent, error)
}

// PredictionHandler serves the oracle endpoints.
type PredictionHandler struct {
	predictions PredictionService
	logger      *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler with the given service
// and logger.
func NewPredictionHandler(predictions PredictionService, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictions: predictions,
		logger:      logger,
	}
}

type predictNewsRequest struct {
	Stocks     []domain.Stock `json:"stocks"`
	CurrentDay *int           `json:"currentDay"`
}

// PredictNews returns a single near-term rise/fall prediction.
// POST /predictNews
func (h *PredictionHandler) PredictNews(w http.ResponseWriter, r *http.Request) {
	var req predictNewsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Stocks) == 0 || req.CurrentDay == nil {
		writeInvalidInput(w)
		return
	}

	pred, err := h.predictions.PredictNews(r.Context(), req.Stocks, *req.CurrentDay)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeInvalidInput(w)
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: predict news failed",
			slog.Int("current_day", *req.CurrentDay),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error predicting news")
		return
	}

	writeJSON(w, http.StatusOK, pred)
}

type predictEconEventRequest struct {
	CurrentDay        *int               `json:"currentDay"`
	ActiveEconEffects []domain.EconEvent `json:"activeEconEffects"`
}

// PredictEconEvent returns the forecast of the next economic event.
// POST /predictEconEvent
func (h *PredictionHandler) PredictEconEvent(w http.ResponseWriter, r *http.Request) {
	var req predictEconEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CurrentDay == nil {
		writeInvalidInput(w)
		return
	}

	pred, err := h.predictions.PredictEconEvent(r.Context(), req.ActiveEconEffects, *req.CurrentDay)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeInvalidInput(w)
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: predict econ event failed",
			slog.Int("current_day", *req.CurrentDay),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error predicting economic event")
		return
	}

	writeJSON(w, http.StatusOK, pred)
}
