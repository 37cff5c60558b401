package bus

import "errors"

// Sentinel kinds for transport errors.
var (
	ErrClosed       = errors.New("bus closed")
	ErrBackpressure = errors.New("partition buffer full")
	ErrGroupExists  = errors.New("consumer group already registered")
)
