package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the process configuration read from the environment.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"minishop-cart"`
	Env         string `env:"ENV"          envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`

	// OTLPEndpoint enables span export over OTLP/HTTP when set.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// APIBaseURL serves both /stock/{id} and /products/{id}. Empty selects
	// the in-memory demo inventory and catalog.
	APIBaseURL      string        `env:"API_BASE_URL"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"0s"`

	StoreDriver string `env:"CART_STORE_DRIVER" envDefault:"memory"`
	SQLitePath  string `env:"CART_SQLITE_PATH"  envDefault:"minishop-cart.db"`
	PostgresDSN string `env:"CART_POSTGRES_DSN"`
	StorageKey  string `env:"CART_STORAGE_KEY"  envDefault:"@minishop:cart"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("CART_SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("CART_POSTGRES_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CART_STORE_DRIVER %q", c.StoreDriver))
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		errs = append(errs, errors.New("CART_STORAGE_KEY must not be empty"))
	}
	if c.UpstreamTimeout < 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// UseDemoUpstream reports whether no upstream API is configured.
func (c Config) UseDemoUpstream() bool {
	return strings.TrimSpace(c.APIBaseURL) == ""
}
