package consumer

import "errors"

// Sentinel kinds for consumer errors.
var (
	ErrUnknownTopic = errors.New("unknown topic")
)
