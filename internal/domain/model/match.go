// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/rules"
)

// ScoreUpdate is one inbound score observation for a match game. Values are
// immutable after construction; NewScoreUpdate is the only place scoring
// rules are checked, so a ScoreUpdate in hand is always legal.
type ScoreUpdate struct {
	ID         string    // unique id per update, used for tracing
	MatchID    string    // stable match identity, the ordering key
	TeamA      string    // team A display name
	TeamB      string    // team B display name
	TeamAScore int
	TeamBScore int
	Winner     string    // empty until the game completes
	GameNumber int       // 1, 2, or 3
	ObservedAt time.Time // when the score was observed upstream
}

// NewScoreUpdate validates the score tuple once and returns an immutable
// update. The returned error wraps one of the rules sentinel kinds.
func NewScoreUpdate(id, matchID, teamA, teamB string, teamAScore, teamBScore, gameNumber int, winner string, observedAt time.Time) (ScoreUpdate, error) {
	if err := rules.Validate(gameNumber, teamAScore, teamBScore); err != nil {
		return ScoreUpdate{}, err
	}
	return ScoreUpdate{
		ID:         id,
		MatchID:    matchID,
		TeamA:      teamA,
		TeamB:      teamB,
		TeamAScore: teamAScore,
		TeamBScore: teamBScore,
		Winner:     winner,
		GameNumber: gameNumber,
		ObservedAt: observedAt,
	}, nil
}

// WithCompletion returns a copy of the update annotated with the derived
// winner when the game is complete and no winner was supplied upstream.
// The winner is the side's team name, falling back to the side label when
// the name is empty.
func (u ScoreUpdate) WithCompletion() ScoreUpdate {
	if u.Winner != "" {
		return u
	}
	side, ok := rules.Winner(u.GameNumber, u.TeamAScore, u.TeamBScore)
	if !ok {
		return u
	}
	switch side {
	case rules.SideTeamA:
		if u.TeamA != "" {
			u.Winner = u.TeamA
		} else {
			u.Winner = side
		}
	case rules.SideTeamB:
		if u.TeamB != "" {
			u.Winner = u.TeamB
		} else {
			u.Winner = side
		}
	}
	return u
}

// Complete reports whether this update's scores end the game.
func (u ScoreUpdate) Complete() bool {
	return rules.IsComplete(u.GameNumber, u.TeamAScore, u.TeamBScore)
}

// SameScores reports whether the other update carries identical score state
// for suppression purposes: scores, winner, and game number all match.
func (u ScoreUpdate) SameScores(other ScoreUpdate) bool {
	return u.GameNumber == other.GameNumber &&
		u.TeamAScore == other.TeamAScore &&
		u.TeamBScore == other.TeamBScore &&
		u.Winner == other.Winner
}

// MatchRow is the durable record kept per (MatchID, GameNumber).
type MatchRow struct {
	MatchID    string
	GameNumber int
	TeamA      string
	TeamB      string
	TeamAScore int
	TeamBScore int
	Winner     string
	ObservedAt time.Time
}

// Row converts the update into its persisted shape.
func (u ScoreUpdate) Row() MatchRow {
	return MatchRow{
		MatchID:    u.MatchID,
		GameNumber: u.GameNumber,
		TeamA:      u.TeamA,
		TeamB:      u.TeamB,
		TeamAScore: u.TeamAScore,
		TeamBScore: u.TeamBScore,
		Winner:     u.Winner,
		ObservedAt: u.ObservedAt,
	}
}
