package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fablestreet/marketsim/internal/domain"
	"github.com/fablestreet/marketsim/internal/server/handler"
	"github.com/fablestreet/marketsim/internal/server/middleware"
	"github.com/fablestreet/marketsim/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int    // requests per client per window; 0 disables limiting
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// History may be nil when the history store is disabled.
type Handlers struct {
	Health     *handler.HealthHandler
	Status     *handler.StatusHandler
	Stocks     *handler.StocksHandler
	Simulation *handler.SimulationHandler
	Prediction *handler.PredictionHandler
	Analysis   *handler.AnalysisHandler
	History    *handler.HistoryHandler
}

// Server is the HTTP + WebSocket API server for the simulation engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (request IDs, CORS, logging, rate limiting, auth)
// and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Game surface, consumed by the front end.
	mux.HandleFunc("GET /stocks", handlers.Stocks.GenerateCatalog)
	mux.HandleFunc("POST /simulateDays", handlers.Simulation.SimulateDays)
	mux.HandleFunc("POST /predictNews", handlers.Prediction.PredictNews)
	mux.HandleFunc("POST /predictEconEvent", handlers.Prediction.PredictEconEvent)
	mux.HandleFunc("POST /analyzePerformance", handlers.Analysis.AnalyzePerformance)

	// Operator surface.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	if handlers.History != nil {
		mux.HandleFunc("GET /api/history", handlers.History.ListBatches)
		mux.HandleFunc("GET /api/history/{id}", handlers.History.GetBatchTicks)
	}

	// Live feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain inside-out; RequestID runs first so the
	// logger sees the ID.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.RequestID()(h)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout must outlive the completion call timeout plus the
		// fallback computation.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
