package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fablestreet/marketsim/internal/domain"
	"github.com/fablestreet/marketsim/internal/schema"
	"github.com/fablestreet/marketsim/internal/sim"
)

// PredictionService produces the oracle hints a game surfaces to the
// player: a stock movement prediction and the forecast of the next
// economic event.
type PredictionService struct {
	completer domain.Completer
	scheduler *sim.Scheduler
	src       sim.Source
	logger    *slog.Logger
}

func NewPredictionService(completer domain.Completer, scheduler *sim.Scheduler, src sim.Source, logger *slog.Logger) *PredictionService {
	return &PredictionService{
		completer: completer,
		scheduler: scheduler,
		src:       src,
		logger:    logger,
	}
}

// PredictNews asks the LLM which stock moves within the next week. A
// rejected reply degrades to a uniformly random pick; an unreachable
// upstream is surfaced to the caller.
func (s *PredictionService) PredictNews(ctx context.Context, stocks []domain.Stock, currentDay int) (domain.Prediction, error) {
	if len(stocks) == 0 || currentDay < 0 {
		return domain.Prediction{}, fmt.Errorf("prediction_service: bad prediction request: %w", domain.ErrInvalidInput)
	}

	prompt := sim.PredictionPrompt(stocks, currentDay)

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: predict news: %w", err)
	}

	pred, err := schema.ValidatePrediction([]byte(text), currentDay+1, currentDay+domain.PredictionHorizon, stocks)
	if err != nil {
		s.logger.WarnContext(ctx, "prediction_service: llm prediction rejected",
			slog.String("error", err.Error()),
		)
		return s.randomPrediction(stocks, currentDay), nil
	}
	return pred, nil
}

// randomPrediction draws a uniform stock, day, and direction over the
// same ranges the validator enforces.
func (s *PredictionService) randomPrediction(stocks []domain.Stock, currentDay int) domain.Prediction {
	pred := domain.Prediction{
		Ticker: stocks[s.src.Intn(len(stocks))].Ticker,
		Day:    currentDay + 1 + s.src.Intn(domain.PredictionHorizon),
	}
	if s.src.Float64() < 0.5 {
		pred.Direction = domain.PredictionRise
	} else {
		pred.Direction = domain.PredictionFall
	}
	return pred
}

// PredictEconEvent forecasts when the next economic shift lands. Repeat
// calls before the forecast day return the same forecast.
func (s *PredictionService) PredictEconEvent(ctx context.Context, active []domain.EconEvent, currentDay int) (domain.PredictedEconEvent, error) {
	if currentDay < 0 {
		return domain.PredictedEconEvent{}, fmt.Errorf("prediction_service: bad event forecast request: %w", domain.ErrInvalidInput)
	}
	pred := s.scheduler.PredictEconEvent(active, currentDay)
	s.logger.DebugContext(ctx, "prediction_service: econ event forecast",
		slog.Int("current_day", currentDay),
		slog.Int("event_day", pred.Day),
	)
	return pred, nil
}

// PredictedEvent exposes the pending forecast, nil when none is held.
func (s *PredictionService) PredictedEvent() *domain.PredictedEconEvent {
	return s.scheduler.Predicted()
}
