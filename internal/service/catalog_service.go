package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fablestreet/marketsim/internal/domain"
	"github.com/fablestreet/marketsim/internal/schema"
	"github.com/fablestreet/marketsim/internal/sim"
)

// CatalogService generates the opening stock catalog for a new game.
// There is no local fallback for catalogs: a game cannot start from
// invented stocks, so both failure stages surface as errors.
type CatalogService struct {
	profile   domain.EngineProfile
	completer domain.Completer
	logger    *slog.Logger
}

func NewCatalogService(profile domain.EngineProfile, completer domain.Completer, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		profile:   profile,
		completer: completer,
		logger:    logger,
	}
}

// GenerateStocks asks the LLM for a fresh catalog sized and shaped by
// the engine profile. Unusable output maps to ErrGeneration, transport
// trouble to ErrUpstream.
func (s *CatalogService) GenerateStocks(ctx context.Context) ([]domain.Stock, error) {
	prompt := sim.CatalogPrompt(s.profile)

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: generate stocks: %w", err)
	}

	stocks, err := schema.ValidateStocks([]byte(text))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			s.logger.WarnContext(ctx, "catalog_service: catalog rejected",
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("catalog_service: generate stocks: %v: %w", err, domain.ErrGeneration)
		}
		return nil, fmt.Errorf("catalog_service: generate stocks: %w", err)
	}

	s.logger.InfoContext(ctx, "catalog_service: catalog generated",
		slog.String("profile", s.profile.Name),
		slog.Int("stocks", len(stocks)),
	)
	return stocks, nil
}
