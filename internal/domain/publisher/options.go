// Package publisher decides whether an inbound score update is novel enough
// to emit.
package publisher

import (
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
)

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithMaxEntries bounds the snapshot table. When full, the least recently
// updated match is evicted. Zero or negative means unbounded.
func WithMaxEntries(n int) Option {
	return func(p *Publisher) {
		p.maxEntries = n
	}
}

// WithTTL expires a snapshot's suppression power after the given duration.
// Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithRetry sets the bounded publish retry policy: total attempts and the
// initial backoff, doubled per retry.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(p *Publisher) {
		if attempts > 0 {
			p.retryAttempts = attempts
		}
		if backoff > 0 {
			p.retryBackoff = backoff
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Publisher) {
		if log != nil {
			p.log = log
		}
	}
}
