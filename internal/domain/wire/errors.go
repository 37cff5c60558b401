package wire

import "errors"

// Sentinel kinds for codec errors.
var (
	ErrDecode = errors.New("payload decode failed")
	ErrEncode = errors.New("payload encode failed")
)
