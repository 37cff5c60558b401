// Package consumer applies published score events to durable storage.
// Delivery is at-least-once and may repeat or, across matches, interleave;
// every write is an idempotent conditional statement so reapplying an event
// leaves the stored state unchanged.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/bus"
	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/repository"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/publisher"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/wire"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/metrics"
)

// Default consumer configuration constants.
const (
	defaultMaxAttempts = 5
	defaultBackoff     = 200 * time.Millisecond
)

// Outcome classifies the result of applying one event.
type Outcome int

const (
	// Ack: the event is applied (or recognized as already applied).
	Ack Outcome = iota
	// Retry: a transient failure; the event may succeed later.
	Retry
	// Fatal: the event can never succeed and is quarantined.
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Retry:
		return "retry"
	case Fatal:
		return "fatal"
	default:
		return "ack"
	}
}

// Consumer writes events to the store with per-message error isolation: a
// malformed or failing event never blocks events of other matches.
type Consumer struct {
	store       repository.Store
	maxAttempts int
	backoff     time.Duration
	log         logger.Logger
}

// New creates a Consumer over store.
func New(store repository.Store, opts ...Option) *Consumer {
	c := &Consumer{
		store:       store,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.Get().Named("consumer")
	}

	return c
}

// Apply decodes the event and performs the conditional write selected by
// the message's topic. It never retries internally; see Handle.
func (c *Consumer) Apply(ctx context.Context, m bus.Message) Outcome {
	fields, err := wire.Decode(m.Payload)
	if err != nil {
		c.quarantine(ctx, m, err)
		return Fatal
	}
	u, err := fields.Update()
	if err != nil {
		// Scores that violate the sport's rules cannot become legal on
		// a redelivery.
		c.quarantine(ctx, m, err)
		return Fatal
	}

	row := u.WithCompletion().Row()
	switch m.Topic {
	case publisher.TopicLatest:
		err = c.store.UpsertLatest(ctx, row)
	case publisher.TopicNewGame:
		var inserted bool
		inserted, err = c.store.InsertNewGame(ctx, row)
		if err == nil && !inserted {
			c.log.Debug(ctx, "game already exists; first writer wins",
				logger.String("matchID", row.MatchID),
				logger.Int("gameNumber", row.GameNumber),
			)
		}
	case publisher.TopicUpdateScore:
		var updated bool
		updated, err = c.store.UpdateScore(ctx, row)
		if err == nil && !updated {
			c.log.Debug(ctx, "no row to update for score event",
				logger.String("matchID", row.MatchID),
				logger.Int("gameNumber", row.GameNumber),
			)
		}
	default:
		c.quarantine(ctx, m, ErrUnknownTopic)
		return Fatal
	}

	switch {
	case err == nil:
		metrics.RecordConsumerAck(m.Topic)
		return Ack
	case errors.Is(err, repository.ErrConstraint):
		c.log.Error(ctx, "storage rejected event",
			logger.String("topic", m.Topic),
			logger.String("matchID", row.MatchID),
			logger.Error(err),
		)
		metrics.RecordConsumerQuarantine(m.Topic)
		return Fatal
	default:
		metrics.RecordConsumerRetry(m.Topic)
		return Retry
	}
}

// Handle is the bus handler: it applies the event, retrying transient
// failures with bounded exponential backoff. Exhaustion is reported and the
// event dropped so the partition keeps moving.
func (c *Consumer) Handle(ctx context.Context, m bus.Message) {
	backoff := c.backoff
	for attempt := 1; ; attempt++ {
		switch c.Apply(ctx, m) {
		case Ack, Fatal:
			return
		case Retry:
			if attempt >= c.maxAttempts {
				metrics.RecordConsumerExhausted(m.Topic)
				c.log.Error(ctx, "event dropped after retry budget spent",
					logger.String("topic", m.Topic),
					logger.String("key", m.Key),
					logger.Int("attempts", attempt),
				)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
}

// quarantine logs a permanently unprocessable message. Retrying a payload
// that cannot be decoded can never succeed.
func (c *Consumer) quarantine(ctx context.Context, m bus.Message, err error) {
	metrics.RecordConsumerQuarantine(m.Topic)
	c.log.Error(ctx, "event quarantined",
		logger.String("topic", m.Topic),
		logger.String("key", m.Key),
		logger.Error(err),
	)
}
