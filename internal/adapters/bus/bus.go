// Package bus provides the in-process message transport between the
// publisher and its consumers. Messages sharing an ordering key always land
// on the same partition of a topic, and each partition is drained by a
// single goroutine per consumer group, so delivery order per key matches
// publish order while partitions proceed concurrently.
package bus

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/shirlenelss/thomas-cup-kafka/pkg/metrics"
)

// Default transport configuration constants.
const (
	defaultPartitions = 8
	defaultBufferSize = 4096
)

// Message is one serialized event in flight.
type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// Handler processes a delivered message. Handlers own their retry policy;
// the bus never redelivers.
type Handler func(ctx context.Context, m Message)

// Bus is the transport contract used by the publisher and consumers.
type Bus interface {
	// Publish places a message on the partition selected by key.
	// Returns ErrClosed after Close, or ErrBackpressure when the
	// partition buffer is full.
	Publish(ctx context.Context, topic, key string, payload []byte) error

	// Consume registers a consumer group on a topic and starts one
	// goroutine per partition invoking h. Each group receives every
	// message published after registration.
	Consume(ctx context.Context, topic, group string, h Handler) error

	// Close stops delivery. Buffered messages are still handed to
	// running consumers before their goroutines exit.
	Close() error
}

// InMemoryBus implements Bus with buffered channels per (topic, group,
// partition).
type InMemoryBus struct {
	mu         sync.RWMutex
	partitions int
	bufferSize int
	topics     map[string]map[string][]chan Message
	closed     bool
}

// NewInMemoryBus creates a bus with configuration options.
func NewInMemoryBus(opts ...Option) *InMemoryBus {
	b := &InMemoryBus{
		partitions: defaultPartitions,
		bufferSize: defaultBufferSize,
		topics:     make(map[string]map[string][]chan Message),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// partitionFor hashes the ordering key onto a partition index.
func (b *InMemoryBus) partitionFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(b.partitions))
}

// Publish fans the message out to every registered consumer group of the
// topic. A topic with no groups drops the message, like a pub/sub broker
// with no subscriptions.
func (b *InMemoryBus) Publish(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	groups := b.topics[topic]
	if len(groups) == 0 {
		metrics.RecordBusPublish(topic)
		return nil
	}

	p := b.partitionFor(key)
	m := Message{Topic: topic, Key: key, Payload: payload}
	for _, chans := range groups {
		select {
		case chans[p] <- m:
			metrics.UpdateBusDepth(topic, strconv.Itoa(p), len(chans[p]))
		case <-ctx.Done():
			metrics.RecordBusBackpressure(topic)
			return ErrBackpressure
		default:
			metrics.RecordBusBackpressure(topic)
			return ErrBackpressure
		}
	}
	metrics.RecordBusPublish(topic)
	return nil
}

// Consume registers group on topic and starts the partition readers.
// Registering the same (topic, group) twice returns ErrGroupExists.
func (b *InMemoryBus) Consume(ctx context.Context, topic, group string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[string][]chan Message)
	}
	if _, ok := b.topics[topic][group]; ok {
		return ErrGroupExists
	}

	chans := make([]chan Message, b.partitions)
	for i := range chans {
		chans[i] = make(chan Message, b.bufferSize)
	}
	b.topics[topic][group] = chans

	for i, ch := range chans {
		go b.consumePartition(ctx, topic, i, ch, h)
	}
	return nil
}

// consumePartition drains one partition in order until the channel closes
// or ctx is cancelled.
func (b *InMemoryBus) consumePartition(ctx context.Context, topic string, partition int, ch <-chan Message, h Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			metrics.RecordBusDelivery(topic)
			metrics.UpdateBusDepth(topic, strconv.Itoa(partition), len(ch))
			h(ctx, m)
		}
	}
}

// Close stops accepting publishes and closes all partition channels.
func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, groups := range b.topics {
		for _, chans := range groups {
			for _, ch := range chans {
				close(ch)
			}
		}
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (b *InMemoryBus) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
