package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/Anuraj-madd/shubhanya-storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Upstream commerce API
	BackendBaseURL    string        `env:"BACKEND_BASE_URL" envDefault:"https://shubhanya-backend.onrender.com"`
	BackendTimeout    time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	BackendMaxRetries int           `env:"BACKEND_MAX_RETRIES" envDefault:"3"`

	// Client store: redis for multi-instance deployments, file for a single
	// host, memory for tests and throwaway runs.
	ClientStoreDriver string `env:"CLIENT_STORE_DRIVER" envDefault:"redis"`
	ClientStoreFile   string `env:"CLIENT_STORE_FILE" envDefault:"client_store.json"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart synchronization
	CartDebounceWindow    time.Duration `env:"CART_DEBOUNCE_WINDOW" envDefault:"60ms"`
	CartPendingTTL        time.Duration `env:"CART_PENDING_TTL" envDefault:"10m"`
	CartRollbackOnFailure bool          `env:"CART_ROLLBACK_ON_FAILURE" envDefault:"false"`
	CartStoreIdleTTL      time.Duration `env:"CART_STORE_IDLE_TTL" envDefault:"30m"`

	// Catalog cache
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"1m"`

	// Kafka analytics (optional)
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CORS
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BackendBaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	switch c.ClientStoreDriver {
	case "redis", "file", "memory":
	default:
		return fmt.Errorf("unknown client store driver: %q", c.ClientStoreDriver)
	}
	if c.CartDebounceWindow <= 0 {
		return fmt.Errorf("cart debounce window must be positive")
	}
	return nil
}
