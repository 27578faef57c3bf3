package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fablestreet/marketsim/internal/domain"
)

// CatalogService defines the methods the stocks handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type CatalogService interface {
	GenerateStocks(ctx context.Context) ([]domain.Stock, error)
}

// StocksHandler serves the stock catalog endpoint.
type StocksHandler struct {
	catalog CatalogService
	logger  *slog.Logger
}

// NewStocksHandler creates a StocksHandler with the given service and logger.
func NewStocksHandler(catalog CatalogService, logger *slog.Logger) *StocksHandler {
	return &StocksHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// GenerateCatalog returns a freshly generated stock catalog.
// GET /stocks
func (h *StocksHandler) GenerateCatalog(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.catalog.GenerateStocks(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: generate catalog failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error generating stock data")
		return
	}

	writeJSON(w, http.StatusOK, stocks)
}
