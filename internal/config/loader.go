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
// built-in defaults, applies FXTRADE_* environment variable overrides, and
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

// applyEnvOverrides reads well-known FXTRADE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject the venue token at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Oanda ──
	setStr(&cfg.Oanda.Token, "FXTRADE_OANDA_TOKEN")
	setStr(&cfg.Oanda.AccountID, "FXTRADE_OANDA_ACCOUNT_ID")
	setStr(&cfg.Oanda.DemoBase, "FXTRADE_OANDA_DEMO_BASE")
	setStr(&cfg.Oanda.DemoStream, "FXTRADE_OANDA_DEMO_STREAM")
	setStr(&cfg.Oanda.LiveBase, "FXTRADE_OANDA_LIVE_BASE")
	setStr(&cfg.Oanda.LiveStream, "FXTRADE_OANDA_LIVE_STREAM")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "FXTRADE_CACHE_BACKEND")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FXTRADE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FXTRADE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FXTRADE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FXTRADE_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "FXTRADE_REDIS_TLS_ENABLED")

	// ── Reconnect ──
	setDuration(&cfg.Reconnect.Delay, "FXTRADE_RECONNECT_DELAY")
	setBool(&cfg.Reconnect.Exponential, "FXTRADE_RECONNECT_EXPONENTIAL")
	setDuration(&cfg.Reconnect.MaxDelay, "FXTRADE_RECONNECT_MAX_DELAY")

	// ── Top-level ──
	setStringSlice(&cfg.Instruments, "FXTRADE_INSTRUMENTS")
	setStr(&cfg.Mode, "FXTRADE_MODE")
	setStr(&cfg.LogLevel, "FXTRADE_LOG_LEVEL")
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
