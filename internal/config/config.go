// File path: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full application configuration, populated from environment
// variables (after main has loaded .env) with flag overrides applied on top.
type Config struct {
	Addr          string        `env:"TRACKWISE_ADDR" envDefault:":8080"`
	SnapshotPath  string        `env:"TRACKWISE_SCHEMA_SNAPSHOT" envDefault:"data/embedding_csv.csv"`
	VerifiedPath  string        `env:"TRACKWISE_VERIFIED_LOG" envDefault:"data/query_verification.jsonl"`
	RetrievalTopN int           `env:"TRACKWISE_RETRIEVAL_TOP_N" envDefault:"3"`
	ExportTTL     time.Duration `env:"TRACKWISE_EXPORT_TTL" envDefault:"15m"`
	ExportMax     int           `env:"TRACKWISE_EXPORT_MAX_RESULTS" envDefault:"32"`

	Oracle OracleConfig
}

// OracleConfig carries the database connection settings. DSN uses the
// host:port/service form.
type OracleConfig struct {
	Username        string        `env:"ORACLE_USERNAME"`
	Password        string        `env:"ORACLE_PASSWORD"`
	DSN             string        `env:"ORACLE_DSN"`
	Owner           string        `env:"ORACLE_OWNER" envDefault:"SYSADM"`
	MaxOpenConns    int           `env:"ORACLE_MAX_OPEN_CONNS" envDefault:"5"`
	MaxIdleConns    int           `env:"ORACLE_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"ORACLE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.SnapshotPath) == "" {
		return fmt.Errorf("schema snapshot path required")
	}
	if strings.TrimSpace(c.VerifiedPath) == "" {
		return fmt.Errorf("verified log path required")
	}
	if c.RetrievalTopN <= 0 {
		return fmt.Errorf("retrieval top-n must be positive: %d", c.RetrievalTopN)
	}
	if c.ExportTTL <= 0 {
		return fmt.Errorf("export ttl must be positive: %s", c.ExportTTL)
	}
	return nil
}
