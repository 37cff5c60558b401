// Package consumer applies published score events to durable storage.
package consumer

import (
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
)

// Option applies a configuration option to the Consumer.
type Option func(*Consumer)

// WithMaxAttempts sets the total apply attempts per event before it is
// dropped.
func WithMaxAttempts(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial retry backoff, doubled per retry.
func WithBackoff(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Consumer) {
		if log != nil {
			c.log = log
		}
	}
}
