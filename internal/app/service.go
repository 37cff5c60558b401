// Package service provides the core business service that implements
// the dependencies required by the HTTP API: the validation, publish, and
// consume pipeline for match-score updates.
package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/bus"
	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/consumer"
	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/repository"
	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/tracking"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/publisher"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/rules"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/wire"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/metrics"
)

// dbWriterGroup is the consumer group persisting events to the store.
const dbWriterGroup = "db-writer"

// Service wires the score pipeline: validation, publish decision, transport,
// and the storage consumer.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	db        *sql.DB
	transport *bus.InMemoryBus
	pub       *publisher.Publisher
	cons      *consumer.Consumer
	events    *tracking.Repository

	// Configuration
	postgresDSN        string
	partitions         int
	busBufferSize      int
	snapshotMaxEntries int
	snapshotTTL        time.Duration
	publishAttempts    int
	publishBackoff     time.Duration
	consumerAttempts   int
	consumerBackoff    time.Duration

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithStore injects a store, bypassing DSN-based construction. Used by
// tests and in-memory deployments.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPostgresDSN selects the Postgres-backed store.
func WithPostgresDSN(dsn string) Option {
	return func(s *Service) {
		s.postgresDSN = dsn
	}
}

// WithPartitions sets the number of transport partitions per topic.
func WithPartitions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.partitions = n
		}
	}
}

// WithBusBufferSize sets the buffer size of each transport partition.
func WithBusBufferSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.busBufferSize = n
		}
	}
}

// WithSnapshotBound bounds the publisher's snapshot table and sets the
// optional suppression TTL.
func WithSnapshotBound(maxEntries int, ttl time.Duration) Option {
	return func(s *Service) {
		if maxEntries > 0 {
			s.snapshotMaxEntries = maxEntries
		}
		if ttl > 0 {
			s.snapshotTTL = ttl
		}
	}
}

// WithPublishRetry sets the publish retry policy.
func WithPublishRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.publishAttempts = attempts
		}
		if backoff > 0 {
			s.publishBackoff = backoff
		}
	}
}

// WithConsumerRetry sets the consumer retry policy.
func WithConsumerRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.consumerAttempts = attempts
		}
		if backoff > 0 {
			s.consumerBackoff = backoff
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		partitions:         8,
		busBufferSize:      4096,
		snapshotMaxEntries: 50000,
		publishAttempts:    3,
		publishBackoff:     100 * time.Millisecond,
		consumerAttempts:   5,
		consumerBackoff:    200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting match score pipeline...")

	if s.store == nil {
		if s.postgresDSN != "" {
			db, err := repository.Open(ctx, s.postgresDSN)
			if err != nil {
				return err
			}
			pg := repository.NewPostgresStore(db)
			if err := pg.EnsureSchema(ctx); err != nil {
				_ = db.Close()
				return err
			}
			s.db = db
			s.store = pg
			s.logger.Info(ctx, "using postgres store")
		} else {
			s.store = repository.NewMemoryStore()
			s.logger.Info(ctx, "using in-memory store")
		}
	}

	s.events = tracking.NewRepository()

	s.transport = bus.NewInMemoryBus(
		bus.WithPartitions(s.partitions),
		bus.WithBufferSize(s.busBufferSize),
	)
	s.pub = publisher.New(s.transport,
		publisher.WithMaxEntries(s.snapshotMaxEntries),
		publisher.WithTTL(s.snapshotTTL),
		publisher.WithRetry(s.publishAttempts, s.publishBackoff),
		publisher.WithLogger(s.logger.Named("publisher")),
	)
	s.cons = consumer.New(s.store,
		consumer.WithMaxAttempts(s.consumerAttempts),
		consumer.WithBackoff(s.consumerBackoff),
		consumer.WithLogger(s.logger.Named("consumer")),
	)

	for _, topic := range []string{publisher.TopicLatest, publisher.TopicNewGame, publisher.TopicUpdateScore} {
		if err := s.transport.Consume(ctx, topic, dbWriterGroup, s.cons.Handle); err != nil {
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "match score pipeline started",
		logger.Int("partitions", s.partitions),
		logger.Int("busBufferSize", s.busBufferSize),
		logger.Int("snapshotMaxEntries", s.snapshotMaxEntries),
	)

	return nil
}

// Stop gracefully shuts down the pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping match score pipeline...")

	if s.transport != nil {
		_ = s.transport.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}

	s.started = false
	s.logger.Info(ctx, "match score pipeline stopped")
}

// Submit validates the decoded fields and offers the update to the
// publisher under the given intent. Validation failures never reach the
// transport; they surface synchronously to the caller.
func (s *Service) Submit(ctx context.Context, intent publisher.Intent, fields wire.Fields) (publisher.Decision, error) {
	if fields.ID == "" {
		fields.ID = uuid.NewString()
	}
	if fields.ObservedAt.IsZero() {
		fields.ObservedAt = time.Now()
	}

	u, err := fields.Update()
	if err != nil {
		metrics.RecordUpdateRejected(rejectionReason(err))
		return publisher.Suppressed, err
	}
	metrics.RecordUpdateValidated()

	return s.pub.Offer(ctx, intent, u)
}

// rejectionReason maps a validation error onto a stable metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, rules.ErrInvalidGameNumber):
		return "invalid_game_number"
	case errors.Is(err, rules.ErrNegativeScore):
		return "negative_score"
	case errors.Is(err, rules.ErrScoreExceedsCap):
		return "score_exceeds_cap"
	case errors.Is(err, rules.ErrIllegalDeuceState):
		return "illegal_deuce_state"
	default:
		return "other"
	}
}

// SubscribeLatest attaches an additional consumer group to the latest-state
// topic, e.g. the live websocket broadcaster.
func (s *Service) SubscribeLatest(ctx context.Context, group string, h func(ctx context.Context, payload []byte)) error {
	return s.transport.Consume(ctx, publisher.TopicLatest, group, func(ctx context.Context, m bus.Message) {
		h(ctx, m.Payload)
	})
}

// GetGame returns the persisted row for one game of a match.
func (s *Service) GetGame(ctx context.Context, matchID string, gameNumber int) (model.MatchRow, error) {
	return s.store.Get(ctx, matchID, gameNumber)
}

// ListGames returns all persisted games of a match.
func (s *Service) ListGames(ctx context.Context, matchID string) ([]model.MatchRow, error) {
	return s.store.ListByMatch(ctx, matchID)
}

// SaveTrackingEvent records an operational tracking event.
func (s *Service) SaveTrackingEvent(ctx context.Context, ev model.TrackingEvent) model.TrackingEvent {
	return s.events.Save(ctx, ev)
}

// TrackingEvents lists the events recorded for a tracking id.
func (s *Service) TrackingEvents(ctx context.Context, trackingID string) []model.TrackingEvent {
	return s.events.List(ctx, trackingID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"partitions": s.partitions,
	}

	if s.started {
		ctx := context.Background()
		stats["snapshotEntries"] = s.pub.Size()
		stats["trackingEvents"] = s.events.Count(ctx)
		if rows, err := s.store.Count(ctx); err == nil {
			stats["storedRows"] = rows
		}
		metrics.UpdateSnapshotEntries(s.pub.Size())
	}

	return stats
}
