package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fablestreet/marketsim/internal/domain"
	"github.com/fablestreet/marketsim/internal/sim"
)

// AnalysisService wraps the free-text performance recap. The reply is
// prose, not JSON, so there is nothing to validate beyond non-emptiness
// and no local fallback worth inventing.
type AnalysisService struct {
	completer domain.Completer
	logger    *slog.Logger
}

func NewAnalysisService(completer domain.Completer, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		completer: completer,
		logger:    logger,
	}
}

// AnalyzePerformance summarizes a finished game from its event log,
// closing portfolio, and remaining budget.
func (s *AnalysisService) AnalyzePerformance(ctx context.Context, log domain.GameLog, portfolio map[string]any, budget float64) (string, error) {
	prompt := sim.AnalysisPrompt(log, portfolio, budget)

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analysis_service: analyze performance: %w", err)
	}

	analysis := strings.TrimSpace(text)
	if analysis == "" {
		return "", fmt.Errorf("analysis_service: empty analysis: %w", domain.ErrUpstream)
	}

	s.logger.DebugContext(ctx, "analysis_service: analysis produced",
		slog.Int("log_entries", len(log)),
		slog.Int("chars", len(analysis)),
	)
	return analysis, nil
}
