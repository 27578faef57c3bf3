package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fablestreet/marketsim/internal/domain"
)

// AnalysisService defines the methods the analysis handler requires from
// the service layer.
type AnalysisService interface {
	AnalyzePerformance(ctx context.Context, log domain.GameLog, portfolio map[string]any, budget float64) (string, error)
}

// AnalysisHandler serves the end-of-game performance recap.
type AnalysisHandler struct {
	analysis AnalysisService
	logger   *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler with the given service and
// logger.
func NewAnalysisHandler(analysis AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		logger:   logger,
	}
}

// analyzeRequest mirrors the wire shape. Log accepts either a JSON array
// or a JSON-encoded string containing one; a malformed string fails the
// body decode and maps to 400.
type analyzeRequest struct {
	Log       domain.GameLog `json:"log"`
	Portfolio map[string]any `json:"portfolio"`
	Budget    *float64       `json:"budget"`
}

// AnalyzePerformance summarizes a finished game.
// POST /analyzePerformance
func (h *AnalysisHandler) AnalyzePerformance(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Log == nil || req.Portfolio == nil || req.Budget == nil {
		writeInvalidInput(w)
		return
	}

	analysis, err := h.analysis.AnalyzePerformance(r.Context(), req.Log, req.Portfolio, *req.Budget)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: analyze performance failed",
			slog.Int("log_entries", len(req.Log)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error analyzing performance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}
