package rules

import "errors"

// Sentinel kinds for score validation failures. Callers match with errors.Is.
var (
	ErrInvalidGameNumber = errors.New("invalid game number")
	ErrNegativeScore     = errors.New("negative score")
	ErrScoreExceedsCap   = errors.New("score exceeds cap")
	ErrIllegalDeuceState = errors.New("illegal deuce state")
)
