// Package bus provides the in-process message transport between the
// publisher and its consumers.
package bus

// Option applies a configuration option to the InMemoryBus.
type Option func(*InMemoryBus)

// WithPartitions sets the number of partitions per topic.
func WithPartitions(n int) Option {
	return func(b *InMemoryBus) {
		if n > 0 {
			b.partitions = n
		}
	}
}

// WithBufferSize sets the buffer size of each partition channel.
func WithBufferSize(size int) Option {
	return func(b *InMemoryBus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}
