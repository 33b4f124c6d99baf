// Package config loads process-wide ambient settings: compiled-in defaults,
// then an optional TOML file, then environment variable overrides (env wins).
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Transport TransportConfig `toml:"transport"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Database  DatabaseConfig  `toml:"database"`
	Vector    VectorConfig    `toml:"vector"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Observe   ObserveConfig   `toml:"observe"`
}

type TransportConfig struct {
	MaxIdleConns        int `toml:"max_idle_conns"`
	MaxIdleConnsPerHost int `toml:"max_idle_conns_per_host"`
	IdleConnTimeoutSec  int `toml:"idle_conn_timeout_seconds"`
	RequestTimeoutSec   int `toml:"request_timeout_seconds"`
	MaxRetries          int `toml:"max_retries"`
	MaxRetryWaitSec     int `toml:"max_retry_wait_seconds"`
}

type RateLimitConfig struct {
	RequestsPerWindow int `toml:"requests_per_window"`
	WindowSeconds     int `toml:"window_seconds"`
	RetryDelayMs      int `toml:"retry_delay_ms"`
	RetryAttempts     int `toml:"retry_attempts"`
}

type SchedulerConfig struct {
	StorePath string `toml:"store_path"`
}

type DatabaseConfig struct {
	ConnString  string `toml:"conn_string"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

type VectorConfig struct {
	Dimension int    `toml:"dimension"`
	Lists     int    `toml:"lists"`
	Table     string `toml:"table"`
}

type EmbeddingConfig struct {
	Provider string `toml:"provider"` // "hosted" or "local"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

type ObserveConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Default returns a Config with all compiled-in defaults applied.
func Default() Config {
	return Config{
		Transport: TransportConfig{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeoutSec:  90,
			RequestTimeoutSec:   30,
			MaxRetries:          3,
			MaxRetryWaitSec:     10,
		},
		RateLimit: RateLimitConfig{RequestsPerWindow: 30, WindowSeconds: 1, RetryDelayMs: 10, RetryAttempts: 0},
		Scheduler: SchedulerConfig{},
		Database:  DatabaseConfig{AutoMigrate: true},
		Vector:    VectorConfig{Dimension: 1536, Lists: 100, Table: "vector_documents"},
		Embedding: EmbeddingConfig{Provider: "hosted"},
		Observe:   ObserveConfig{Enabled: false, ServiceName: "vkteams-bot"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "vkteams-bot.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("VKTEAMS_DATABASE_CONN_STRING"); v != "" {
		cfg.Database.ConnString = v
	}
	if v := os.Getenv("VKTEAMS_DATABASE_AUTO_MIGRATE"); v != "" {
		cfg.Database.AutoMigrate = v == "true" || v == "1"
	}
	if v := os.Getenv("VKTEAMS_VECTOR_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vector.Dimension = n
		}
	}
	if v := os.Getenv("VKTEAMS_VECTOR_LISTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vector.Lists = n
		}
	}
	if v := os.Getenv("VKTEAMS_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("VKTEAMS_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("VKTEAMS_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("VKTEAMS_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("VKTEAMS_SCHEDULER_STORE_PATH"); v != "" {
		cfg.Scheduler.StorePath = v
	}
	if v := os.Getenv("VKTEAMS_OBSERVE_ENABLED"); v != "" {
		cfg.Observe.Enabled = v == "true" || v == "1"
	}

	return cfg
}
