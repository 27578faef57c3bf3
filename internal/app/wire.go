package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/fablestreet/marketsim/internal/blob/s3"
	"github.com/fablestreet/marketsim/internal/cache/memory"
	"github.com/fablestreet/marketsim/internal/cache/redis"
	"github.com/fablestreet/marketsim/internal/config"
	"github.com/fablestreet/marketsim/internal/crypto"
	"github.com/fablestreet/marketsim/internal/domain"
	"github.com/fablestreet/marketsim/internal/notify"
	"github.com/fablestreet/marketsim/internal/platform/openai"
	"github.com/fablestreet/marketsim/internal/sim"
	"github.com/fablestreet/marketsim/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Profile is the resolved engine profile for cfg.Engine.Profile.
	Profile domain.EngineProfile

	// Completer is the LLM collaborator behind every generated payload.
	Completer domain.Completer

	// Simulation engine shared by the services. Scheduler and Fallback
	// draw from the same locked Source so a seeded run is reproducible.
	Source    *sim.LockedSource
	Scheduler *sim.Scheduler
	Fallback  *sim.FallbackSimulator

	// Cache memoizes simulation responses on the structural request key.
	Cache domain.ResponseCache

	// History is nil unless Postgres persistence is enabled.
	History domain.HistoryStore

	// Archiver is nil unless batch archival to object storage is enabled.
	Archiver *s3blob.Archiver

	// Limiter is nil unless the cache runs on Redis; with no limiter the
	// server skips rate limiting entirely.
	Limiter domain.RateLimiter

	// Notifier delivers operational alerts. Never nil; without configured
	// channels it drops everything.
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Engine profile ---
	profile, err := domain.ProfileByName(cfg.Engine.Profile)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	overrideProfile(&profile, cfg.Engine)
	if err := profile.Validate(); err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	deps.Profile = profile

	// --- Completion client ---
	apiKey, err := crypto.LoadAPIKey(crypto.KeySource{
		APIKey:        cfg.LLM.ApiKey,
		SealedKeyPath: cfg.LLM.EncryptedKeyPath,
		Passphrase:    cfg.LLM.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: llm credentials: %w", err)
	}
	deps.Completer = openai.NewClient(openai.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLM.Timeout.Duration,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger)

	// --- Simulation engine ---
	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	deps.Source = sim.NewLockedSource(seed)
	deps.Scheduler = sim.NewScheduler(deps.Source)
	deps.Fallback = sim.NewFallbackSimulator(deps.Source, profile.ScaledFallbackVolatility)

	// --- Response cache ---
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewResponseCache(redisClient, cfg.Cache.TTL.Duration)
		deps.Limiter = redis.NewRateLimiter(redisClient)
	default:
		memCache := memory.NewResponseCache(cfg.Cache.TTL.Duration)
		closers = append(closers, func() { _ = memCache.Close() })
		deps.Cache = memCache
	}

	// --- PostgreSQL history (only when persistence is enabled) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.History = postgres.NewHistoryStore(pgClient.Pool())
	}

	// --- S3 archiver (only when archival is enabled) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = s3blob.NewArchiver(s3Client, cfg.Archive.QueueSize, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// overrideProfile lays non-zero [engine] settings over the built-in profile
// so a deployment can tune a game mode without a new build.
func overrideProfile(p *domain.EngineProfile, cfg config.EngineConfig) {
	if cfg.StockCount > 0 {
		p.StockCount = cfg.StockCount
	}
	if cfg.VolatilityMin > 0 {
		p.VolatilityMin = cfg.VolatilityMin
	}
	if cfg.VolatilityMax > 0 {
		p.VolatilityMax = cfg.VolatilityMax
	}
	if cfg.StartingBudget > 0 {
		p.StartingBudget = cfg.StartingBudget
	}
	if cfg.IncludeSectorAndTidbit != nil {
		p.IncludeSectorAndTidbit = *cfg.IncludeSectorAndTidbit
	}
	if cfg.ScaledFallbackVolatility != nil {
		p.ScaledFallbackVolatility = *cfg.ScaledFallbackVolatility
	}
}
