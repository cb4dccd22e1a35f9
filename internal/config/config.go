// Package config loads service configuration from an optional YAML file with
// environment variable overrides. Environment always wins so container
// deployments can override a baked-in file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env         string `yaml:"env"`
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`
	AMQPURL     string `yaml:"amqp_url"`
	ValkeyAddr  string `yaml:"valkey_addr"` // empty disables the summary cache

	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
	SlotsPerPage float64       `yaml:"slots_per_page"`
	SummaryTTL   time.Duration `yaml:"summary_ttl"`
}

const (
	defaultPollInterval = 2500 * time.Millisecond
	defaultPollTimeout  = 2 * time.Second
	defaultSlotsPerPage = 4.0
	defaultSummaryTTL   = 24 * time.Hour
)

// Load reads the YAML file named by SCANSVC_CONFIG if set, applies
// environment overrides and fills defaults.
func Load() (Config, error) {
	cfg := Config{
		Env:          "development",
		ListenAddr:   ":8080",
		PollInterval: defaultPollInterval,
		PollTimeout:  defaultPollTimeout,
		SlotsPerPage: defaultSlotsPerPage,
		SummaryTTL:   defaultSummaryTTL,
	}

	if path := os.Getenv("SCANSVC_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	overrideString(&cfg.Env, "APP_ENV")
	overrideString(&cfg.ListenAddr, "LISTEN_ADDR")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AMQPURL, "AMQP_URL")
	overrideString(&cfg.ValkeyAddr, "VALKEY_ADDR")
	if err := overrideDuration(&cfg.PollInterval, "POLL_INTERVAL"); err != nil {
		return cfg, err
	}
	if err := overrideDuration(&cfg.PollTimeout, "POLL_TIMEOUT"); err != nil {
		return cfg, err
	}
	if err := overrideFloat(&cfg.SlotsPerPage, "SLOTS_PER_PAGE"); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if c.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL not set")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.SlotsPerPage <= 0 {
		return fmt.Errorf("slots_per_page must be positive, got %g", c.SlotsPerPage)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func overrideFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}
