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
// built-in defaults, applies BETSWARM_* environment variable overrides, and
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

// applyEnvOverrides reads well-known BETSWARM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BETSWARM_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BETSWARM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BETSWARM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BETSWARM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BETSWARM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BETSWARM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BETSWARM_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BETSWARM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BETSWARM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BETSWARM_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BETSWARM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BETSWARM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BETSWARM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BETSWARM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BETSWARM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BETSWARM_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "BETSWARM_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "BETSWARM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BETSWARM_S3_REGION")
	setStr(&cfg.S3.Bucket, "BETSWARM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BETSWARM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BETSWARM_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BETSWARM_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BETSWARM_S3_FORCE_PATH_STYLE")

	// ── Vault ──
	setStr(&cfg.Vault.MasterPassword, "BETSWARM_VAULT_MASTER_PASSWORD")

	// ── Network ──
	setStr(&cfg.Network.Endpoint, "BETSWARM_NETWORK_ENDPOINT")

	// ── Placement ──
	setInt64(&cfg.Placement.MaxConcurrent, "BETSWARM_PLACEMENT_MAX_CONCURRENT")
	setBool(&cfg.Placement.AttemptInsufficient, "BETSWARM_PLACEMENT_ATTEMPT_INSUFFICIENT")
	setInt(&cfg.Placement.SiteRateLimit, "BETSWARM_PLACEMENT_SITE_RATE_LIMIT")
	setDuration(&cfg.Placement.SiteRateWindow, "BETSWARM_PLACEMENT_SITE_RATE_WINDOW")
	setDuration(&cfg.Placement.SessionTTL, "BETSWARM_PLACEMENT_SESSION_TTL")
	setDuration(&cfg.Placement.LockTTL, "BETSWARM_PLACEMENT_LOCK_TTL")
	setFloat64(&cfg.Placement.OddsTolerance, "BETSWARM_PLACEMENT_ODDS_TOLERANCE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BETSWARM_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BETSWARM_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "BETSWARM_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "BETSWARM_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "BETSWARM_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "BETSWARM_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BETSWARM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BETSWARM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BETSWARM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BETSWARM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BETSWARM_MODE")
	setStr(&cfg.LogLevel, "BETSWARM_LOG_LEVEL")
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
