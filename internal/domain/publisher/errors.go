package publisher

import "errors"

// Sentinel kinds for publish errors.
var (
	ErrEmitFailed = errors.New("transport emit failed")
)
