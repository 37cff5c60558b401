package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if THOMASCUP_CONFIG is set
//  3. env (prefix THOMASCUP_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("THOMASCUP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: THOMASCUP_ADDR, THOMASCUP_BUS_PARTITIONS, ...
	// Map env keys like THOMASCUP_BUS_PARTITIONS -> bus_partitions (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("THOMASCUP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "thomascup_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.BusPartitions <= 0 {
		return fmt.Errorf("%w: bus_partitions must be positive", ErrInvalidConfig)
	}
	if c.BusBufferSize <= 0 {
		return fmt.Errorf("%w: bus_buffer_size must be positive", ErrInvalidConfig)
	}
	if c.SnapshotMaxEntries <= 0 {
		return fmt.Errorf("%w: snapshot_max_entries must be positive", ErrInvalidConfig)
	}
	if c.PublishRetryAttempts <= 0 || c.ConsumerMaxAttempts <= 0 {
		return fmt.Errorf("%w: retry attempts must be positive", ErrInvalidConfig)
	}
	return nil
}
