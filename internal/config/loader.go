package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETSIM_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// LoadDefault returns the defaults with environment overrides applied, for
// running without a config file at all.
func LoadDefault() *Config {
	cfg := Defaults()
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)
	return &cfg
}

// applyEnvOverrides reads well-known MARKETSIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── LLM ──
	setStr(&cfg.LLM.ApiKey, "MARKETSIM_LLM_API_KEY")
	setStr(&cfg.LLM.ApiKey, "OPENAI_API_KEY") // compatibility alias
	setStr(&cfg.LLM.EncryptedKeyPath, "MARKETSIM_LLM_ENCRYPTED_KEY_PATH")
	setStr(&cfg.LLM.KeyPassword, "MARKETSIM_LLM_KEY_PASSWORD")
	setStr(&cfg.LLM.BaseURL, "MARKETSIM_LLM_BASE_URL")
	setStr(&cfg.LLM.Model, "MARKETSIM_LLM_MODEL")
	setFloat64(&cfg.LLM.Temperature, "MARKETSIM_LLM_TEMPERATURE")
	setInt(&cfg.LLM.MaxTokens, "MARKETSIM_LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "MARKETSIM_LLM_TIMEOUT")

	// ── Engine ──
	setStr(&cfg.Engine.Profile, "MARKETSIM_ENGINE_PROFILE")
	setInt64(&cfg.Engine.Seed, "MARKETSIM_ENGINE_SEED")
	setInt(&cfg.Engine.StockCount, "MARKETSIM_ENGINE_STOCK_COUNT")
	setFloat64(&cfg.Engine.VolatilityMin, "MARKETSIM_ENGINE_VOLATILITY_MIN")
	setFloat64(&cfg.Engine.VolatilityMax, "MARKETSIM_ENGINE_VOLATILITY_MAX")
	setFloat64(&cfg.Engine.StartingBudget, "MARKETSIM_ENGINE_STARTING_BUDGET")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "MARKETSIM_CACHE_BACKEND")
	setDuration(&cfg.Cache.TTL, "MARKETSIM_CACHE_TTL")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "MARKETSIM_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "MARKETSIM_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "MARKETSIM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MARKETSIM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MARKETSIM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MARKETSIM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MARKETSIM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MARKETSIM_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MARKETSIM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MARKETSIM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MARKETSIM_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MARKETSIM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETSIM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETSIM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETSIM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETSIM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETSIM_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MARKETSIM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETSIM_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETSIM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETSIM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETSIM_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETSIM_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETSIM_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "MARKETSIM_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.QueueSize, "MARKETSIM_ARCHIVE_QUEUE_SIZE")

	// ── Server ──
	setInt(&cfg.Server.Port, "MARKETSIM_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // compatibility alias
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETSIM_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.ApiKey, "MARKETSIM_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "MARKETSIM_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MARKETSIM_SERVER_RATE_WINDOW")
	setBool(&cfg.Server.FeedEnabled, "MARKETSIM_SERVER_FEED_ENABLED")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETSIM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETSIM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETSIM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MARKETSIM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETSIM_MODE")
	setStr(&cfg.LogLevel, "MARKETSIM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
