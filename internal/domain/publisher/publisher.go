// Package publisher decides whether an inbound score update is novel enough
// to emit, and publishes surviving updates to the transport under the
// match's ordering key.
package publisher

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/wire"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/metrics"
)

// Topic names for the three logical channels.
const (
	TopicLatest      = "match-results-latest"
	TopicNewGame     = "match-results-new-game"
	TopicUpdateScore = "match-results-update-score"
)

// Default publisher configuration constants.
const (
	defaultMaxEntries    = 50000
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 100 * time.Millisecond
)

// Intent is the semantic channel an update was submitted on.
type Intent int

const (
	IntentLatest Intent = iota
	IntentNewGame
	IntentScoreUpdate
)

// Topic returns the transport topic for the intent.
func (i Intent) Topic() string {
	switch i {
	case IntentNewGame:
		return TopicNewGame
	case IntentScoreUpdate:
		return TopicUpdateScore
	default:
		return TopicLatest
	}
}

// Decision is the outcome of an Offer call. Suppression is a deliberate
// no-op, not an error.
type Decision int

const (
	Suppressed Decision = iota
	Published
)

func (d Decision) String() string {
	if d == Published {
		return "published"
	}
	return "suppressed"
}

// Transport abstracts the ordered-per-key delivery channel.
type Transport interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// snapshotEntry holds the last published state for one match. The entry
// mutex serializes the compare-decide-replace sequence per match; it is
// never held across transport I/O.
type snapshotEntry struct {
	mu       sync.Mutex
	snapshot model.ScoreUpdate
	seen     bool
	updated  time.Time
	elem     *list.Element
}

// Publisher suppresses stale or unchanged updates and emits the rest.
// Snapshots are keyed by match id only: one active game is tracked per
// match, the most recent one.
type Publisher struct {
	transport Transport

	mu         sync.Mutex // guards snapshots and lru
	snapshots  map[string]*snapshotEntry
	lru        *list.List // front = most recently updated match id
	maxEntries int
	ttl        time.Duration

	retryAttempts int
	retryBackoff  time.Duration

	log logger.Logger
}

// New creates a Publisher emitting on transport.
func New(transport Transport, opts ...Option) *Publisher {
	p := &Publisher{
		transport:     transport,
		snapshots:     make(map[string]*snapshotEntry),
		lru:           list.New(),
		maxEntries:    defaultMaxEntries,
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  defaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.log == nil {
		p.log = logger.Get().Named("publisher")
	}

	return p
}

// Offer decides whether to publish the update and emits it when novel.
// The decision rule: publish when no snapshot exists for the match, when
// the update's timestamp is strictly newer, or when the scores differ from
// the snapshot (a score change propagates even with an equal timestamp).
//
// The snapshot is replaced under the per-match critical section before the
// transport emit starts, so a concurrent Offer for the same match observes
// the new state. A crash or emit failure after the replace can therefore
// suppress a retry of an event that never reached the transport; the
// snapshot is deliberately not rolled back.
func (p *Publisher) Offer(ctx context.Context, intent Intent, u model.ScoreUpdate) (Decision, error) {
	u = u.WithCompletion()
	e := p.entryFor(u.MatchID)

	e.mu.Lock()
	if e.seen && p.fresh(e) && !u.ObservedAt.After(e.snapshot.ObservedAt) && u.SameScores(e.snapshot) {
		e.mu.Unlock()
		metrics.RecordSuppression()
		p.log.Debug(ctx, "update suppressed",
			logger.String("matchID", u.MatchID),
			logger.Int("gameNumber", u.GameNumber),
		)
		return Suppressed, nil
	}
	e.snapshot = u
	e.seen = true
	e.updated = time.Now()
	e.mu.Unlock()

	// Emit without the critical section held.
	payload, err := wire.Encode(u)
	if err != nil {
		return Published, err
	}

	topics := []string{intent.Topic()}
	if intent == IntentScoreUpdate && u.Complete() {
		topics = append(topics, TopicLatest)
	}
	for _, topic := range topics {
		if err := p.emit(ctx, topic, u.MatchID, payload); err != nil {
			metrics.RecordPublishFailure()
			p.log.Error(ctx, "publish failed after retries",
				logger.String("topic", topic),
				logger.String("matchID", u.MatchID),
				logger.Error(err),
			)
			return Published, fmt.Errorf("%w: topic %s: %w", ErrEmitFailed, topic, err)
		}
		metrics.RecordPublish(topic)
	}
	return Published, nil
}

// emit publishes with bounded exponential backoff.
func (p *Publisher) emit(ctx context.Context, topic, key string, payload []byte) error {
	backoff := p.retryBackoff
	var err error
	for attempt := 1; attempt <= p.retryAttempts; attempt++ {
		err = p.transport.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}
		if attempt == p.retryAttempts {
			break
		}
		metrics.RecordPublishRetry()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// entryFor returns the snapshot entry for the match, creating it and
// evicting the least recently updated entry when the table is full.
func (p *Publisher) entryFor(matchID string) *snapshotEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.snapshots[matchID]; ok {
		p.lru.MoveToFront(e.elem)
		return e
	}

	if p.maxEntries > 0 && len(p.snapshots) >= p.maxEntries {
		if back := p.lru.Back(); back != nil {
			evicted := back.Value.(string)
			p.lru.Remove(back)
			delete(p.snapshots, evicted)
			metrics.RecordSnapshotEviction()
		}
	}

	e := &snapshotEntry{}
	e.elem = p.lru.PushFront(matchID)
	p.snapshots[matchID] = e
	metrics.UpdateSnapshotEntries(len(p.snapshots))
	return e
}

// fresh reports whether the entry's snapshot is still within the TTL.
// A zero TTL means snapshots never expire. Expired snapshots lose their
// suppression power but stay in the table until evicted by the LRU bound.
func (p *Publisher) fresh(e *snapshotEntry) bool {
	return p.ttl <= 0 || time.Since(e.updated) < p.ttl
}

// Size returns the current number of snapshot entries.
func (p *Publisher) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}
