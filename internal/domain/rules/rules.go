// Package rules implements badminton scoring legality and game completion
// for a best-of-three match.
package rules

import "fmt"

// Scoring constants for a best-of-three badminton match.
const (
	// AbsoluteCap is the hard score limit reached during extended deuce play.
	AbsoluteCap = 30

	standardCeiling = 21 // games 1 and 2
	deciderCeiling  = 15 // game 3

	minGameNumber = 1
	maxGameNumber = 3

	winningMargin = 2
)

// Ceiling returns the regulation winning score for the given game number.
// Game 3 is the shortened decider.
func Ceiling(gameNumber int) int {
	if gameNumber == maxGameNumber {
		return deciderCeiling
	}
	return standardCeiling
}

// Validate checks a (gameNumber, teamAScore, teamBScore) triple against the
// sport's scoring rules. It is a pure function with no side effects and is
// safe for concurrent use.
//
// Rules are applied in order:
//  1. gameNumber must be 1, 2, or 3.
//  2. both scores must be non-negative.
//  3. neither score may exceed the absolute cap of 30.
//  4. a score beyond the regulation ceiling is legal only in deuce, i.e.
//     when both sides are within one point of the ceiling.
func Validate(gameNumber, teamAScore, teamBScore int) error {
	if gameNumber < minGameNumber || gameNumber > maxGameNumber {
		return fmt.Errorf("%w: game number must be 1, 2, or 3 but is %d", ErrInvalidGameNumber, gameNumber)
	}
	if teamAScore < 0 || teamBScore < 0 {
		return fmt.Errorf("%w: got %d-%d", ErrNegativeScore, teamAScore, teamBScore)
	}
	if teamAScore > AbsoluteCap || teamBScore > AbsoluteCap {
		return fmt.Errorf("%w: scores must not exceed %d, got %d-%d", ErrScoreExceedsCap, AbsoluteCap, teamAScore, teamBScore)
	}
	ceiling := Ceiling(gameNumber)
	if teamAScore > ceiling || teamBScore > ceiling {
		if teamAScore < ceiling-1 || teamBScore < ceiling-1 {
			return fmt.Errorf("%w: scores beyond %d require both sides at %d or more, got %d-%d",
				ErrIllegalDeuceState, ceiling, ceiling-1, teamAScore, teamBScore)
		}
	}
	return nil
}

// IsComplete reports whether the game is over: either side has reached the
// absolute cap, or a side has reached the regulation ceiling with a margin
// of at least two points.
func IsComplete(gameNumber, teamAScore, teamBScore int) bool {
	if teamAScore >= AbsoluteCap || teamBScore >= AbsoluteCap {
		return true
	}
	ceiling := Ceiling(gameNumber)
	margin := teamAScore - teamBScore
	if margin < 0 {
		margin = -margin
	}
	return (teamAScore >= ceiling || teamBScore >= ceiling) && margin >= winningMargin
}

// Side labels used when no team name is available for the winner.
const (
	SideTeamA = "TeamA"
	SideTeamB = "TeamB"
)

// Winner returns the side with the strictly higher score once the game is
// complete. The second return value is false when the game is incomplete or
// the scores are tied.
func Winner(gameNumber, teamAScore, teamBScore int) (string, bool) {
	if !IsComplete(gameNumber, teamAScore, teamBScore) {
		return "", false
	}
	switch {
	case teamAScore > teamBScore:
		return SideTeamA, true
	case teamBScore > teamAScore:
		return SideTeamB, true
	default:
		return "", false
	}
}
