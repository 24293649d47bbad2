// Package config loads server configuration from an optional TOML file
// layered under environment variables. Env vars always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the server
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Blockscout BlockscoutConfig
	Addresses  AddressesConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	ReadTimeout    int // seconds
	WriteTimeout   int // seconds
	IdleTimeout    int // seconds
	RequestTimeout int // seconds
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type     string // "sqlite" or "postgres"
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// BlockscoutConfig holds explorer API settings
type BlockscoutConfig struct {
	URL string
	// APIKey authorizes the token-info import endpoint on the explorer side.
	APIKey   string
	RetryMax int
}

// AddressesConfig holds verified-address registry settings
type AddressesConfig struct {
	// MaxVerifiedAddresses caps how many addresses one account may verify per
	// chain.
	MaxVerifiedAddresses int64
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
	CleanupMinutes int
	// TrustProxyHeaders makes the limiter key on X-Forwarded-For/X-Real-Ip.
	// Only set this when the service runs behind a proxy that strips
	// client-supplied values for those headers.
	TrustProxyHeaders bool
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled     bool
	ServiceName string
}

// fileConfig mirrors Config for TOML decoding. Every field is a pointer so
// that absent keys fall back to defaults.
type fileConfig struct {
	Server struct {
		Port           *int    `toml:"port"`
		Host           *string `toml:"host"`
		ReadTimeout    *int    `toml:"read_timeout"`
		WriteTimeout   *int    `toml:"write_timeout"`
		IdleTimeout    *int    `toml:"idle_timeout"`
		RequestTimeout *int    `toml:"request_timeout"`
	} `toml:"server"`
	Storage struct {
		Type        *string `toml:"type"`
		PostgresURL *string `toml:"postgres_url"`
		SQLitePath  *string `toml:"sqlite_path"`
	} `toml:"storage"`
	Blockscout struct {
		URL      *string `toml:"url"`
		APIKey   *string `toml:"api_key"`
		RetryMax *int    `toml:"retry_max"`
	} `toml:"blockscout"`
	Addresses struct {
		MaxVerifiedAddresses *int64 `toml:"max_verified_addresses"`
	} `toml:"addresses"`
	Logging struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"logging"`
	RateLimit struct {
		Enabled           *bool `toml:"enabled"`
		RequestsPerMin    *int  `toml:"requests_per_min"`
		BurstSize         *int  `toml:"burst_size"`
		CleanupMinutes    *int  `toml:"cleanup_minutes"`
		TrustProxyHeaders *bool `toml:"trust_proxy_headers"`
	} `toml:"rate_limit"`
	Metrics struct {
		Enabled     *bool   `toml:"enabled"`
		ServiceName *string `toml:"service_name"`
	} `toml:"metrics"`
}

// Load loads configuration. Defaults are overridden by the TOML file named in
// CONFIG_FILE (if set), then by environment variables.
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", orInt(file.Server.Port, 8080)),
			Host:           getEnv("HOST", orStr(file.Server.Host, "0.0.0.0")),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", orInt(file.Server.ReadTimeout, 30)),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", orInt(file.Server.WriteTimeout, 60)),
			IdleTimeout:    getEnvInt("SERVER_IDLE_TIMEOUT", orInt(file.Server.IdleTimeout, 120)),
			RequestTimeout: getEnvInt("SERVER_REQUEST_TIMEOUT", orInt(file.Server.RequestTimeout, 30)),
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", orStr(file.Storage.Type, "sqlite")),
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", orStr(file.Storage.PostgresURL, "")),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", orStr(file.Storage.SQLitePath, "./data/contractsinfo.db")),
			},
		},
		Blockscout: BlockscoutConfig{
			URL:      getEnv("BLOCKSCOUT_URL", orStr(file.Blockscout.URL, "")),
			APIKey:   getEnv("BLOCKSCOUT_API_KEY", orStr(file.Blockscout.APIKey, "")),
			RetryMax: getEnvInt("BLOCKSCOUT_RETRY_MAX", orInt(file.Blockscout.RetryMax, 2)),
		},
		Addresses: AddressesConfig{
			MaxVerifiedAddresses: int64(getEnvInt("MAX_VERIFIED_ADDRESSES", orInt(intPtr(file.Addresses.MaxVerifiedAddresses), 100))),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", orStr(file.Logging.Level, "info")),
			Format: getEnv("LOG_FORMAT", orStr(file.Logging.Format, "json")),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", orBool(file.RateLimit.Enabled, true)),
			RequestsPerMin:    getEnvInt("RATE_LIMIT_RPM", orInt(file.RateLimit.RequestsPerMin, 300)),
			BurstSize:         getEnvInt("RATE_LIMIT_BURST", orInt(file.RateLimit.BurstSize, 50)),
			CleanupMinutes:    getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", orInt(file.RateLimit.CleanupMinutes, 10)),
			TrustProxyHeaders: getEnvBool("RATE_LIMIT_TRUST_PROXY_HEADERS", orBool(file.RateLimit.TrustProxyHeaders, false)),
		},
		Metrics: MetricsConfig{
			Enabled:     getEnvBool("METRICS_ENABLED", orBool(file.Metrics.Enabled, true)),
			ServiceName: getEnv("METRICS_SERVICE_NAME", orStr(file.Metrics.ServiceName, "contractsinfo")),
		},
	}

	// If DATABASE_URL is set, default to postgres
	if cfg.Storage.Postgres.URL != "" && cfg.Storage.Type == "sqlite" {
		cfg.Storage.Type = "postgres"
	}

	if cfg.Blockscout.URL == "" {
		return nil, fmt.Errorf("BLOCKSCOUT_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func orStr(p *string, def string) string {
	if p != nil {
		return *p
	}
	return def
}

func orInt(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

func orBool(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

func intPtr(p *int64) *int {
	if p == nil {
		return nil
	}
	v := int(*p)
	return &v
}
