// Package config provides configuration loading for commtrace.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables, with hardcoded defaults as the base layer.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/commtrace/internal/logging"
)

// Config holds the complete commtrace configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Analysis      AnalysisConfig      `koanf:"analysis"`
	Cache         CacheConfig         `koanf:"cache"`
	Logging       logging.Config      `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit"`  // requests per second, 0 disables
	RateBurst       int           `koanf:"rate_burst"`  // bucket size when limiting
	MaxBodyMB       int64         `koanf:"max_body_mb"` // request body cap in megabytes
}

// AnalysisConfig holds the analysis engine thresholds and timeouts.
type AnalysisConfig struct {
	ConversationTimeout time.Duration `koanf:"conversation_timeout"`
	CounterpartyTimeout time.Duration `koanf:"counterparty_timeout"`
	QuickThreshold      time.Duration `koanf:"quick_threshold"`
	DelayedThreshold    time.Duration `koanf:"delayed_threshold"`
	BalanceLow          float64       `koanf:"balance_low"`
	BalanceHigh         float64       `koanf:"balance_high"`
}

// CacheConfig holds the result cache configuration.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 20
	}
	if cfg.Server.MaxBodyMB == 0 {
		cfg.Server.MaxBodyMB = 16
	}

	if cfg.Analysis.ConversationTimeout == 0 {
		cfg.Analysis.ConversationTimeout = time.Hour
	}
	if cfg.Analysis.CounterpartyTimeout == 0 {
		cfg.Analysis.CounterpartyTimeout = time.Hour
	}
	if cfg.Analysis.QuickThreshold == 0 {
		cfg.Analysis.QuickThreshold = 5 * time.Minute
	}
	if cfg.Analysis.DelayedThreshold == 0 {
		cfg.Analysis.DelayedThreshold = time.Hour
	}
	if cfg.Analysis.BalanceLow == 0 {
		cfg.Analysis.BalanceLow = 0.4
	}
	if cfg.Analysis.BalanceHigh == 0 {
		cfg.Analysis.BalanceHigh = 0.6
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.TTL == 0 {
			cfg.Cache.TTL = time.Hour
		}
		if cfg.Cache.MaxEntries == 0 {
			cfg.Cache.MaxEntries = 256
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "commtrace"
	}
	if cfg.Observability.OTLPEndpoint == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
	}
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %f", c.Server.RateLimit)
	}
	if c.Analysis.ConversationTimeout < 0 || c.Analysis.CounterpartyTimeout < 0 {
		return fmt.Errorf("conversation timeouts must be non-negative")
	}
	if c.Analysis.BalanceLow <= 0 || c.Analysis.BalanceHigh >= 1 ||
		c.Analysis.BalanceLow >= c.Analysis.BalanceHigh {
		return fmt.Errorf("balance thresholds must satisfy 0 < low < high < 1, got low=%f high=%f",
			c.Analysis.BalanceLow, c.Analysis.BalanceHigh)
	}
	if c.Analysis.QuickThreshold >= c.Analysis.DelayedThreshold {
		return fmt.Errorf("quick threshold must be below delayed threshold")
	}
	return nil
}
