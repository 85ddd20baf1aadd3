package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"4" validate:"min=1,max=32"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s" validate:"gt=0"`
	RefreshInterval  time.Duration `envconfig:"REFRESH_INTERVAL" default:"6h" validate:"gte=15m"`

	// CatalogPath points at an external site catalog; empty uses the
	// embedded one.
	CatalogPath string `envconfig:"CATALOG_PATH"`
	OutputDir   string `envconfig:"OUTPUT_DIR" default:"reports"`
	Timezone    string `envconfig:"TIMEZONE" default:"Europe/Berlin"`

	KafkaEnabled   bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaSinkTopic string   `envconfig:"KAFKA_SINK_TOPIC" default:"flight-assessments"`
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is merged in first, without
// overriding variables already exported.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}
	return &cfg, nil
}

// Location resolves the configured timezone. Load has already verified it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
