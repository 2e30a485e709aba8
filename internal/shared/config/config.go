package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port        string `koanf:"port"`
	Env         string `koanf:"env"`
	LogLevel    string `koanf:"log_level"`
	DatabaseURL string `koanf:"database_url"`

	// StoreDriver selects the query backend: postgres, sqlite or memory
	StoreDriver string `koanf:"store_driver"`
	// SQLitePath is the database file of the sqlite store. ":memory:"
	// keeps it in process.
	SQLitePath string `koanf:"sqlite_path"`
	// SeedFile is an optional JSON document loaded into the memory store,
	// or into an empty sqlite database
	SeedFile string `koanf:"seed_file"`

	ReportTimeout      time.Duration `koanf:"report_timeout"`
	MaxInflightQueries int64         `koanf:"max_inflight_queries"`
	TopN               int           `koanf:"top_n"`
	SampleSize         int           `koanf:"sample_size"`
	ExportMaxRows      int           `koanf:"export_max_rows"`

	// HealthRefreshSchedule is a 5-field cron spec; empty disables the job
	HealthRefreshSchedule string `koanf:"health_refresh_schedule"`
}

var knownKeys = map[string]bool{
	"port":                    true,
	"env":                     true,
	"log_level":               true,
	"database_url":            true,
	"store_driver":            true,
	"sqlite_path":             true,
	"seed_file":               true,
	"report_timeout":          true,
	"max_inflight_queries":    true,
	"top_n":                   true,
	"sample_size":             true,
	"export_max_rows":         true,
	"health_refresh_schedule": true,
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() *Config {
	return &Config{
		Port:                  "8080",
		Env:                   "development",
		LogLevel:              "info",
		StoreDriver:           DriverPostgres,
		SQLitePath:            "resume_admin.db",
		ReportTimeout:         10 * time.Second,
		MaxInflightQueries:    0,
		TopN:                  10,
		SampleSize:            5,
		ExportMaxRows:         10000,
		HealthRefreshSchedule: "*/5 * * * *",
	}
}

// LoadConfig layers defaults, an optional YAML file (ADMIN_CONFIG) and the
// environment, in that order. A .env file is loaded first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using system environment variables")
	}

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ADMIN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// PORT -> port, REPORT_TIMEOUT -> report_timeout. Unknown or empty
	// variables are skipped.
	envProvider := env.ProviderWithValue("", ".", func(k, v string) (string, interface{}) {
		key := strings.ToLower(k)
		if !knownKeys[key] || v == "" {
			return "", nil
		}
		return key, v
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and driver requirements
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", ErrInvalidConfig)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite store", ErrInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalidConfig, c.StoreDriver)
	}

	if c.Port == "" {
		return fmt.Errorf("%w: PORT must not be empty", ErrInvalidConfig)
	}
	if c.ReportTimeout <= 0 {
		return fmt.Errorf("%w: REPORT_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.MaxInflightQueries < 0 {
		return fmt.Errorf("%w: MAX_INFLIGHT_QUERIES must not be negative", ErrInvalidConfig)
	}
	if c.TopN <= 0 || c.SampleSize <= 0 || c.ExportMaxRows <= 0 {
		return fmt.Errorf("%w: TOP_N, SAMPLE_SIZE and EXPORT_MAX_ROWS must be positive", ErrInvalidConfig)
	}

	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
