// Package config defines the top-level configuration for the market
// simulator and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETSIM_* environment
// variables.
type Config struct {
	Sim      SimConfig      `toml:"sim"`
	History  HistoryConfig  `toml:"history"`
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// WalkConfig is the (min, max, std) parameter triple for one bounded walk.
type WalkConfig struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
	Std float64 `toml:"std"`
}

// SimConfig holds the market generation parameters.
type SimConfig struct {
	// Seed drives every random source; the same seed replays the same market.
	Seed int64 `toml:"seed"`
	// Open is the simulated market-open instant, RFC3339. Empty means today
	// at 00:30 local time.
	Open string `toml:"open"`
	// Length bounds generated history in simulated time.
	Length duration `toml:"length"`
	// Symbols is the two-instrument universe.
	Symbols []string `toml:"symbols"`
	// InitialAge is how many insertion turns a resting order survives.
	InitialAge int `toml:"initial_age"`
	// WarmupPulls is how many snapshots the quote service discards per
	// projection at startup.
	WarmupPulls int `toml:"warmup_pulls"`

	Freq   WalkConfig `toml:"freq"`
	Price  WalkConfig `toml:"price"`
	Spread WalkConfig `toml:"spread"`
}

// MarketOpen resolves the configured open instant, defaulting to today at
// 00:30 local time when unset.
func (s SimConfig) MarketOpen() (time.Time, error) {
	if s.Open == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 30, 0, 0, now.Location()), nil
	}
	t, err := time.Parse(time.RFC3339, s.Open)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: parse sim.open: %w", err)
	}
	return t, nil
}

// HistoryConfig holds order-history persistence parameters.
type HistoryConfig struct {
	// Path is the CSV history file written in generate mode and replayed in
	// serve mode.
	Path string `toml:"path"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// Realtime gates snapshot delivery against the wall clock so replay
	// advances no faster than simulated time.
	Realtime bool `toml:"realtime"`
}

// RedisConfig holds Redis connection parameters for the quote cache and
// signal bus. Disabled by default; the simulator runs fully in-process
// without it.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds connection parameters for the order-history store.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// S3Config holds object storage parameters for history archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "720h", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the simulator's canonical
// parameters: five years of history from today's 00:30 open, trade gaps
// drawn from (12, 36, 50) hours, prices from (60, 150, 1), spreads from
// (2, 6, 0.1), two symbols, resting age 10.
func Defaults() Config {
	return Config{
		Sim: SimConfig{
			Seed:        1,
			Length:      duration{5 * 365 * 24 * time.Hour},
			Symbols:     []string{"ABC", "DEF"},
			InitialAge:  10,
			WarmupPulls: 10,
			Freq:        WalkConfig{Min: 12, Max: 36, Std: 50},
			Price:       WalkConfig{Min: 60, Max: 150, Std: 1},
			Spread:      WalkConfig{Min: 2.0, Max: 6.0, Std: 0.1},
		},
		History: HistoryConfig{
			Path: "history.csv",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8080,
			CORSOrigins: []string{"*"},
			Realtime:    true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "marketsim",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		S3: S3Config{
			Enabled:        false,
			Region:         "us-east-1",
			Bucket:         "marketsim-history",
			ForcePathStyle: true,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"generate": true,
	"serve":    true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: generate, serve, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Sim
	if len(c.Sim.Symbols) != 2 {
		errs = append(errs, fmt.Sprintf("sim: exactly two symbols required, got %d", len(c.Sim.Symbols)))
	} else if c.Sim.Symbols[0] == c.Sim.Symbols[1] {
		errs = append(errs, "sim: symbols must be distinct")
	}
	if c.Sim.Length.Duration <= 0 {
		errs = append(errs, "sim: length must be positive")
	}
	if c.Sim.InitialAge < 1 {
		errs = append(errs, "sim: initial_age must be >= 1")
	}
	if c.Sim.WarmupPulls < 0 {
		errs = append(errs, "sim: warmup_pulls must be >= 0")
	}
	if _, err := c.Sim.MarketOpen(); err != nil {
		errs = append(errs, fmt.Sprintf("sim: open must be RFC3339, got %q", c.Sim.Open))
	}
	for _, w := range []struct {
		name string
		cfg  WalkConfig
	}{
		{"freq", c.Sim.Freq},
		{"price", c.Sim.Price},
		{"spread", c.Sim.Spread},
	} {
		if w.cfg.Max <= w.cfg.Min {
			errs = append(errs, fmt.Sprintf("sim: %s max must exceed min", w.name))
		}
		if w.cfg.Std < 0 {
			errs = append(errs, fmt.Sprintf("sim: %s std must be >= 0", w.name))
		}
	}

	// History
	if c.History.Path == "" {
		errs = append(errs, "history: path must not be empty")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
