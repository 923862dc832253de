// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	MerchantAPIKey string `yaml:"merchant_api_key"` // bearer key for merchant-side endpoints
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedemptionConfig holds the tunables of the redemption protocol.
type RedemptionConfig struct {
	ProofTTL   time.Duration `yaml:"proof_ttl"`   // proof token lifetime
	VoidWindow time.Duration `yaml:"void_window"` // max age of a redemption that can still be voided
	Timezone   string        `yaml:"timezone"`    // IANA zone for all calendar-day comparisons
}

type SchedulerConfig struct {
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Redemption RedemptionConfig `yaml:"redemption"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redemption.ProofTTL <= 0 {
		cfg.Redemption.ProofTTL = 30 * time.Second
	}
	if cfg.Redemption.VoidWindow <= 0 {
		cfg.Redemption.VoidWindow = 2 * time.Hour
	}
	if cfg.Redemption.Timezone == "" {
		cfg.Redemption.Timezone = "UTC"
	}
	if cfg.Scheduler.ExpirySweepInterval <= 0 {
		cfg.Scheduler.ExpirySweepInterval = 15 * time.Minute
	}

	loc, err := time.LoadLocation(cfg.Redemption.Timezone)
	if err != nil {
		return nil, fmt.Errorf("redemption.timezone: %w", err)
	}
	// The ledger's daily-quota index buckets claim days AT TIME ZONE 'UTC'.
	// A zone with a different offset (in any season) would split the marker
	// and void day from the ledger day, so only zero-offset zones are valid.
	for _, probe := range []time.Time{
		time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC),
	} {
		if _, offset := probe.In(loc).Zone(); offset != 0 {
			return nil, fmt.Errorf("redemption.timezone %q does not match the ledger's UTC day bucketing; migrate the quota index before changing it", cfg.Redemption.Timezone)
		}
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// Location resolves the configured calendar-day zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Redemption.Timezone)
}
