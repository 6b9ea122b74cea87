// Package config defines the top-level configuration for the trading core
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by FXTRADE_* environment variables.
type Config struct {
	Oanda     OandaConfig     `toml:"oanda"`
	Cache     CacheConfig     `toml:"cache"`
	Redis     RedisConfig     `toml:"redis"`
	Reconnect ReconnectConfig `toml:"reconnect"`

	// Instruments is the symbol set subscribed on connect, e.g. ["EUR_USD"].
	Instruments []string `toml:"instruments"`
	Mode        string   `toml:"mode"`
	LogLevel    string   `toml:"log_level"`
}

// OandaConfig holds OANDA v20 credentials and endpoint pairs. Leaving the live
// pair empty restricts the process to the practice environment.
type OandaConfig struct {
	Token      string `toml:"token"`
	AccountID  string `toml:"account_id"`
	DemoBase   string `toml:"demo_base"`
	DemoStream string `toml:"demo_stream"`
	LiveBase   string `toml:"live_base"`
	LiveStream string `toml:"live_stream"`
}

// CacheConfig selects the snapshot cache backend.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `toml:"backend"`
}

// RedisConfig holds Redis connection parameters, used when the cache backend
// is "redis".
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ReconnectConfig controls the stream reconnect policy.
type ReconnectConfig struct {
	Delay       duration `toml:"delay"`
	Exponential bool     `toml:"exponential"`
	MaxDelay    duration `toml:"max_delay"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "1m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Oanda: OandaConfig{
			DemoBase:   "https://api-fxpractice.oanda.com",
			DemoStream: "wss://stream-fxpractice.oanda.com",
			LiveBase:   "https://api-fxtrade.oanda.com",
			LiveStream: "wss://stream-fxtrade.oanda.com",
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			TLSEnabled: false,
		},
		Reconnect: ReconnectConfig{
			Delay:       duration{5 * time.Second},
			Exponential: false,
			MaxDelay:    duration{time.Minute},
		},
		Instruments: []string{"EUR_USD"},
		Mode:        "demo",
		LogLevel:    "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"demo": true,
	"live": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validCacheBackends enumerates the accepted values for Cache.Backend.
var validCacheBackends = map[string]bool{
	"memory": true,
	"redis":  true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: demo, live)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Oanda
	if c.Oanda.Token == "" {
		errs = append(errs, "oanda: token must not be empty")
	}
	if c.Oanda.DemoBase == "" || c.Oanda.DemoStream == "" {
		errs = append(errs, "oanda: demo_base and demo_stream must not be empty")
	}
	if strings.ToLower(c.Mode) == "live" {
		if c.Oanda.LiveBase == "" || c.Oanda.LiveStream == "" {
			errs = append(errs, "oanda: live_base and live_stream must be set for mode live")
		}
	}

	// Instruments
	if len(c.Instruments) == 0 {
		errs = append(errs, "instruments must list at least one symbol")
	}
	for _, sym := range c.Instruments {
		if strings.TrimSpace(sym) == "" {
			errs = append(errs, "instruments must not contain empty symbols")
			break
		}
	}

	// Cache
	if !validCacheBackends[strings.ToLower(c.Cache.Backend)] {
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if strings.ToLower(c.Cache.Backend) == "redis" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when cache backend is redis")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Reconnect
	if c.Reconnect.Delay.Duration <= 0 {
		errs = append(errs, "reconnect: delay must be > 0")
	}
	if c.Reconnect.Exponential && c.Reconnect.MaxDelay.Duration < c.Reconnect.Delay.Duration {
		errs = append(errs, "reconnect: max_delay must be >= delay when exponential backoff is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
