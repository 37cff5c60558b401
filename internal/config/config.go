// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PostgresDSN selects the Postgres store when non-empty; the in-memory
	// store is used otherwise.
	PostgresDSN string `koanf:"postgres_dsn"`

	// BusPartitions sets the number of transport partitions per topic.
	BusPartitions int `koanf:"bus_partitions"`

	// BusBufferSize bounds each partition's in-flight buffer.
	BusBufferSize int `koanf:"bus_buffer_size"`

	// SnapshotMaxEntries bounds the publish-suppression snapshot table.
	SnapshotMaxEntries int `koanf:"snapshot_max_entries"`

	// SnapshotTTLSeconds expires suppression snapshots; 0 disables expiry.
	SnapshotTTLSeconds int `koanf:"snapshot_ttl_seconds"`

	// PublishRetryAttempts and PublishRetryBackoffMS shape publish retries.
	PublishRetryAttempts  int `koanf:"publish_retry_attempts"`
	PublishRetryBackoffMS int `koanf:"publish_retry_backoff_ms"`

	// ConsumerMaxAttempts and ConsumerBackoffMS shape consumer retries.
	ConsumerMaxAttempts int `koanf:"consumer_max_attempts"`
	ConsumerBackoffMS   int `koanf:"consumer_backoff_ms"`

	// WSEnabled exposes the live score websocket endpoint.
	WSEnabled bool `koanf:"ws_enabled"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		BusPartitions:         8,
		BusBufferSize:         4096,
		SnapshotMaxEntries:    50_000,
		SnapshotTTLSeconds:    0,
		PublishRetryAttempts:  3,
		PublishRetryBackoffMS: 100,
		ConsumerMaxAttempts:   5,
		ConsumerBackoffMS:     200,
		WSEnabled:             true,
	}
}

// SnapshotTTL returns the snapshot expiry as a duration.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

// PublishRetryBackoff returns the publish backoff as a duration.
func (c *Config) PublishRetryBackoff() time.Duration {
	return time.Duration(c.PublishRetryBackoffMS) * time.Millisecond
}

// ConsumerBackoff returns the consumer backoff as a duration.
func (c *Config) ConsumerBackoff() time.Duration {
	return time.Duration(c.ConsumerBackoffMS) * time.Millisecond
}
