package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models foldbench.yml.
type Config struct {
	Eligibility struct {
		MinConfidence         float64 `yaml:"min_confidence"`
		MinResidues           int     `yaml:"min_residues"`
		MaxResidues           int     `yaml:"max_residues"`
		RequireRepresentative bool    `yaml:"require_representative"`
	} `yaml:"eligibility"`
	Leases struct {
		TTLSeconds            int `yaml:"ttl_seconds"`
		AbandonTimeoutSeconds int `yaml:"abandon_timeout_seconds"`
		SweepIntervalSeconds  int `yaml:"sweep_interval_seconds"`
	} `yaml:"leases"`
	Batch struct {
		DefaultSize int `yaml:"default_size"`
		MaxSize     int `yaml:"max_size"`
	} `yaml:"batch"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// WebhookConfig describes one outbound event subscription. An empty Events
// list means every event type.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret,omitempty"`
	Events         []string `yaml:"events,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
	Enabled        *bool    `yaml:"enabled,omitempty"`
}

// LeaseTTL returns the lease lifetime as a duration.
func (c *Config) LeaseTTL() time.Duration {
	return time.Duration(c.Leases.TTLSeconds) * time.Second
}

// AbandonTimeout returns the session inactivity window before the reaper
// marks a session abandoned.
func (c *Config) AbandonTimeout() time.Duration {
	return time.Duration(c.Leases.AbandonTimeoutSeconds) * time.Second
}

// SweepInterval returns how often the background reaper runs.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Leases.SweepIntervalSeconds) * time.Second
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Eligibility.MinConfidence < 0 || c.Eligibility.MinConfidence > 1 {
		return fmt.Errorf("config.eligibility.min_confidence must be within [0,1]")
	}
	if c.Eligibility.MinResidues < 0 {
		return fmt.Errorf("config.eligibility.min_residues must be >= 0")
	}
	if c.Eligibility.MaxResidues > 0 && c.Eligibility.MaxResidues < c.Eligibility.MinResidues {
		return fmt.Errorf("config.eligibility.max_residues must be >= min_residues")
	}
	if c.Leases.TTLSeconds <= 0 {
		return fmt.Errorf("config.leases.ttl_seconds must be > 0")
	}
	if c.Leases.AbandonTimeoutSeconds < c.Leases.TTLSeconds {
		return fmt.Errorf("config.leases.abandon_timeout_seconds must be >= ttl_seconds")
	}
	if c.Leases.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("config.leases.sweep_interval_seconds must be > 0")
	}
	if c.Batch.DefaultSize <= 0 {
		return fmt.Errorf("config.batch.default_size must be > 0")
	}
	if c.Batch.MaxSize < c.Batch.DefaultSize {
		return fmt.Errorf("config.batch.max_size must be >= default_size")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "foldbench.yml")
}

// Load reads and validates config from the workspace, falling back to
// defaults when no file exists.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns the default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `eligibility:
  # Items below this best-evidence confidence never enter a batch.
  min_confidence: 0.5
  min_residues: 30
  max_residues: 5000
  require_representative: true

leases:
  ttl_seconds: 7200
  abandon_timeout_seconds: 14400
  sweep_interval_seconds: 300

batch:
  default_size: 20
  max_size: 200
`
