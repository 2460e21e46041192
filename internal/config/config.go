package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level wealthtrack.yaml configuration.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Pricing PricingConfig `yaml:"pricing"`
	Git     GitConfig     `yaml:"git"`
}

// ImportConfig controls CSV ingestion behavior.
type ImportConfig struct {
	MaxRows      int   `yaml:"max_rows"`
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	// PerShareRatio is the threshold for reinterpreting an ambiguous cost
	// column as per-share: cost/shares below ratio x price triggers it.
	// Omitted means the built-in default; an explicit 0 disables the
	// reinterpretation entirely.
	PerShareRatio *float64 `yaml:"per_share_ratio,omitempty"`
	// AssumeHeuristics skips the confirmation prompt for columns matched
	// by substring or fuzzy fallback.
	AssumeHeuristics bool `yaml:"assume_heuristics"`
}

// PricingConfig points at the external quote endpoint.
type PricingConfig struct {
	BaseURL         string `yaml:"base_url,omitempty"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// GitConfig controls git snapshotting of the data directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a wealthtrack.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	ratio := 0.01
	return &Config{
		Import: ImportConfig{
			MaxRows:       10000,
			MaxFileBytes:  10 << 20,
			PerShareRatio: &ratio,
		},
		Pricing: PricingConfig{
			CacheTTLSeconds: 30,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "WealthTrack",
			AuthorEmail: "tracker@wealthtrack.dev",
		},
	}
}
