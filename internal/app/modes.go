package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fablestreet/marketsim/internal/server"
	"github.com/fablestreet/marketsim/internal/server/handler"
	"github.com/fablestreet/marketsim/internal/server/ws"
	"github.com/fablestreet/marketsim/internal/service"
)

// shutdownGrace bounds the drain of in-flight requests once the run
// context is cancelled.
const shutdownGrace = 10 * time.Second

// ServeMode runs the HTTP API together with the live feed hub and the
// background archiver, blocking until the context is cancelled or a
// component fails.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	// Live feed hub.
	var hub *ws.Hub
	var feed service.Broadcaster
	if a.cfg.Server.FeedEnabled {
		hub = ws.NewHub(deps.Profile.Name, a.logger)
		feed = hub
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	// Background archiver drains its queue before exiting.
	var archiver service.BatchArchiver
	if deps.Archiver != nil {
		archiver = deps.Archiver
		g.Go(func() error {
			return deps.Archiver.Run(ctx)
		})
	}

	// Services.
	catalogSvc := service.NewCatalogService(deps.Profile, deps.Completer, a.logger)
	marketSvc := service.NewMarketService(
		deps.Profile, deps.Completer, deps.Cache, deps.Scheduler, deps.Fallback,
		deps.History, archiver, feed, deps.Notifier, a.logger,
	)
	predictionSvc := service.NewPredictionService(deps.Completer, deps.Scheduler, deps.Source, a.logger)
	analysisSvc := service.NewAnalysisService(deps.Completer, a.logger)

	// Handlers. History endpoints register only when the store is wired;
	// the feed counter stays nil so the status payload omits it when the
	// feed is off.
	var feedCounter handler.ClientCounter
	if hub != nil {
		feedCounter = hub
	}
	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(a.logger),
		Status:     handler.NewStatusHandler(deps.Profile.Name, predictionSvc, feedCounter),
		Stocks:     handler.NewStocksHandler(catalogSvc, a.logger),
		Simulation: handler.NewSimulationHandler(marketSvc, a.logger),
		Prediction: handler.NewPredictionHandler(predictionSvc, a.logger),
		Analysis:   handler.NewAnalysisHandler(analysisSvc, a.logger),
	}
	if deps.History != nil {
		handlers.History = handler.NewHistoryHandler(marketSvc, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.ApiKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, deps.Limiter, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// GenerateMode produces one stock catalog on stdout and exits. Useful for
// seeding fixtures or eyeballing prompt quality without running a server.
func (a *App) GenerateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting generate mode")

	catalogSvc := service.NewCatalogService(deps.Profile, deps.Completer, a.logger)
	stocks, err := catalogSvc.GenerateStocks(ctx)
	if err != nil {
		return fmt.Errorf("generate mode: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stocks); err != nil {
		return fmt.Errorf("generate mode: encode catalog: %w", err)
	}
	return nil
}
