package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fablestreet/marketsim/internal/domain"
)

// HistoryService defines the methods the history handler requires from
// the service layer.
type HistoryService interface {
	RecentBatches(ctx context.Context, limit int) ([]domain.SimulationBatch, error)
	BatchTicks(ctx context.Context, batchID string) ([]domain.SimulationTick, error)
}

// HistoryHandler serves the operator-facing simulation history.
type HistoryHandler struct {
	history HistoryService
	logger  *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler with the given service and
// logger.
func NewHistoryHandler(history HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// listBatchesResponse wraps the list endpoint output with its limit.
type listBatchesResponse struct {
	Batches []domain.SimulationBatch `json:"batches"`
	Limit   int                      `json:"limit"`
}

// ListBatches returns recent simulation batches, newest first.
// GET /api/history?limit=50
func (h *HistoryHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	batches, err := h.history.RecentBatches(r.Context(), limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "history not enabled")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: list batches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error listing history")
		return
	}
	if batches == nil {
		batches = []domain.SimulationBatch{}
	}

	writeJSON(w, http.StatusOK, listBatchesResponse{
		Batches: batches,
		Limit:   limit,
	})
}

// GetBatchTicks returns the ticks recorded for one batch.
// GET /api/history/{id}
func (h *HistoryHandler) GetBatchTicks(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeInvalidInput(w)
		return
	}

	ticks, err := h.history.BatchTicks(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "batch not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get batch ticks failed",
			slog.String("batch_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error loading batch")
		return
	}

	writeJSON(w, http.StatusOK, ticks)
}
