package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/fablestreet/marketsim/internal/domain"
	"github.com/fablestreet/marketsim/internal/notify"
	"github.com/fablestreet/marketsim/internal/schema"
	"github.com/fablestreet/marketsim/internal/sim"
)

// Broadcaster pushes engine output to live feed subscribers.
type Broadcaster interface {
	BroadcastJSON(event string, payload any)
}

// BatchArchiver accepts completed batches for background archival.
type BatchArchiver interface {
	Enqueue(batch domain.SimulationBatch, ticks []domain.SimulationTick)
}

// MarketService advances the market simulation. It asks the LLM for the
// next batch of days, validates the reply, and substitutes the local
// random walk when the reply is unusable. Identical requests inside the
// cache window share one computation.
type MarketService struct {
	profile   domain.EngineProfile
	completer domain.Completer
	cache     domain.ResponseCache
	scheduler *sim.Scheduler
	fallback  *sim.FallbackSimulator
	history   domain.HistoryStore
	archiver  BatchArchiver
	feed      Broadcaster
	notifier  *notify.Notifier
	logger    *slog.Logger
	flight    singleflight.Group
}

// NewMarketService creates a MarketService. history, archiver, feed, and
// notifier may be nil when the deployment does not enable them.
func NewMarketService(
	profile domain.EngineProfile,
	completer domain.Completer,
	cache domain.ResponseCache,
	scheduler *sim.Scheduler,
	fallback *sim.FallbackSimulator,
	history domain.HistoryStore,
	archiver BatchArchiver,
	feed Broadcaster,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		profile:   profile,
		completer: completer,
		cache:     cache,
		scheduler: scheduler,
		fallback:  fallback,
		history:   history,
		archiver:  archiver,
		feed:      feed,
		notifier:  notifier,
		logger:    logger,
	}
}

// SimulateDays produces ticks for days currentDay+1 through
// currentDay+days plus at most one new economic event. Results are
// memoized on the structural request key; concurrent identical requests
// share a single computation.
func (s *MarketService) SimulateDays(ctx context.Context, req domain.SimulationRequest) (domain.SimulationResult, error) {
	if len(req.Stocks) == 0 || req.Days <= 0 || req.CurrentDay < 0 {
		return domain.SimulationResult{}, fmt.Errorf("market_service: bad simulation request: %w", domain.ErrInvalidInput)
	}

	key := req.CacheKey()
	if cached, err := s.cache.Get(ctx, key); err == nil {
		s.logger.DebugContext(ctx, "market_service: cache hit",
			slog.String("key", key[:12]),
		)
		return cached, nil
	}

	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.advance(ctx, req, key), nil
	})
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("market_service: simulate days: %w", err)
	}
	if shared {
		s.logger.DebugContext(ctx, "market_service: joined in-flight request",
			slog.String("key", key[:12]),
		)
	}
	return v.(domain.SimulationResult), nil
}

// advance runs one authoritative batch: event scheduling, tick
// generation, cache write, and side effects. It cannot fail; the fallback
// guarantees ticks.
func (s *MarketService) advance(ctx context.Context, req domain.SimulationRequest, key string) domain.SimulationResult {
	start := time.Now()

	// Promotion of the predicted event wins over rolling a fresh one;
	// either way a batch adds at most one event.
	newEvents := make([]domain.EconEvent, 0, 1)
	if ev := s.scheduler.PromotePredicted(req.CurrentDay, req.Days); ev != nil {
		newEvents = append(newEvents, *ev)
	} else if ev := s.scheduler.MaybeSchedule(req.ActiveEconEffects, req.CurrentDay); ev != nil {
		newEvents = append(newEvents, *ev)
	}

	ticks, source := s.obtainTicks(ctx, req)
	result := domain.SimulationResult{Simulated: ticks, NewEconEvents: newEvents}

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.WarnContext(ctx, "market_service: cache set failed",
			slog.String("key", key[:12]),
			slog.String("error", err.Error()),
		)
	}

	for _, ev := range newEvents {
		s.notifyAsync(notify.EventEconShift, "Economic event scheduled",
			fmt.Sprintf("%s starting day %d, %d days", ev.Headline, ev.StartDay, ev.DaysLeft))
		if s.feed != nil {
			s.feed.BroadcastJSON("econEvent", ev)
		}
	}
	if s.feed != nil {
		s.feed.BroadcastJSON("simulation", result)
	}
	s.record(req, result, source, time.Since(start))

	s.logger.InfoContext(ctx, "market_service: batch simulated",
		slog.Int("current_day", req.CurrentDay),
		slog.Int("days", req.Days),
		slog.Int("ticks", len(ticks)),
		slog.Int("new_events", len(newEvents)),
		slog.String("source", string(source)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result
}

// obtainTicks runs the LLM pipeline and falls back to the random walk on
// either failure stage. The fallback ignores predictions and active
// effects.
func (s *MarketService) obtainTicks(ctx context.Context, req domain.SimulationRequest) ([]domain.SimulationTick, domain.BatchSource) {
	ticks, out := s.llmTicks(ctx, req)
	switch out {
	case outcomeOK:
		return ticks, domain.SourceLLM
	case outcomeUpstreamFailed:
		s.notifyAsync(notify.EventUpstream, "LLM unreachable",
			fmt.Sprintf("simulation day %d+%d served by local walk", req.CurrentDay, req.Days))
	case outcomeValidationFailed:
		s.notifyAsync(notify.EventFallback, "LLM output rejected",
			fmt.Sprintf("simulation day %d+%d served by local walk", req.CurrentDay, req.Days))
	}
	return s.fallback.Simulate(req.Stocks, req.CurrentDay, req.Days), domain.SourceFallback
}

func (s *MarketService) llmTicks(ctx context.Context, req domain.SimulationRequest) ([]domain.SimulationTick, outcome) {
	prompt := sim.SimulationPrompt(req.Stocks, req.Predictions, req.ActiveEconEffects, req.CurrentDay, req.Days)

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "market_service: llm call failed",
			slog.String("error", err.Error()),
		)
		return nil, outcomeUpstreamFailed
	}

	ticks, err := schema.ValidateTicks([]byte(text), req.CurrentDay+1, req.CurrentDay+req.Days)
	if err != nil {
		s.logger.WarnContext(ctx, "market_service: llm ticks rejected",
			slog.String("error", err.Error()),
		)
		return nil, outcomeValidationFailed
	}
	return ticks, outcomeOK
}

// RecentBatches lists simulation history for operators, newest first.
func (s *MarketService) RecentBatches(ctx context.Context, limit int) ([]domain.SimulationBatch, error) {
	if s.history == nil {
		return nil, fmt.Errorf("market_service: history store disabled: %w", domain.ErrNotFound)
	}
	batches, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("market_service: list batches: %w", err)
	}
	return batches, nil
}

// BatchTicks returns the recorded ticks of one archived batch.
func (s *MarketService) BatchTicks(ctx context.Context, batchID string) ([]domain.SimulationTick, error) {
	if s.history == nil {
		return nil, fmt.Errorf("market_service: history store disabled: %w", domain.ErrNotFound)
	}
	ticks, err := s.history.TicksForBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("market_service: batch ticks: %w", err)
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("market_service: batch %s: %w", batchID, domain.ErrNotFound)
	}
	return ticks, nil
}

// record hands the finished batch to the archiver and the history store.
// Both are best effort and never delay the response.
func (s *MarketService) record(req domain.SimulationRequest, result domain.SimulationResult, source domain.BatchSource, elapsed time.Duration) {
	if s.archiver == nil && s.history == nil {
		return
	}
	batch := domain.SimulationBatch{
		ID:         uuid.NewString(),
		Profile:    s.profile.Name,
		CurrentDay: req.CurrentDay,
		Days:       req.Days,
		Source:     source,
		TickCount:  len(result.Simulated),
		EventCount: len(result.NewEconEvents),
		ElapsedMS:  elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	if s.archiver != nil {
		s.archiver.Enqueue(batch, result.Simulated)
	}
	if s.history != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.history.InsertBatch(ctx, batch, result.Simulated); err != nil {
				s.logger.Error("market_service: history insert failed",
					slog.String("batch_id", batch.ID),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
}

func (s *MarketService) notifyAsync(event, title, message string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.notifier.Notify(ctx, event, title, message)
	}()
}
