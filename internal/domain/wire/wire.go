// Package wire defines the single JSON schema used on the transport and at
// the HTTP ingress. There is exactly one encode and one decode path; a
// malformed payload yields a typed per-field error instead of a generic
// unmarshal failure.
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
)

// envelope is the wire shape for a score update. Field names follow the
// public API contract. Pointers distinguish absent from zero.
type envelope struct {
	ID         string          `json:"id,omitempty"`
	MatchID    string          `json:"matchId"`
	TeamA      string          `json:"teamA"`
	TeamB      string          `json:"teamB"`
	TeamAScore *int            `json:"teamAScore"`
	TeamBScore *int            `json:"teamBScore"`
	Winner     string          `json:"winner,omitempty"`
	GameNumber *int            `json:"gameNumber"`
	ObservedAt json.RawMessage `json:"matchDateTime,omitempty"`
}

// FieldError reports a missing or malformed field in a payload.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrDecode.
func (e *FieldError) Unwrap() error { return ErrDecode }

// Encode serializes an update to its wire form.
func Encode(u model.ScoreUpdate) ([]byte, error) {
	a, b, g := u.TeamAScore, u.TeamBScore, u.GameNumber
	env := envelope{
		ID:         u.ID,
		MatchID:    u.MatchID,
		TeamA:      u.TeamA,
		TeamB:      u.TeamB,
		TeamAScore: &a,
		TeamBScore: &b,
		Winner:     u.Winner,
		GameNumber: &g,
	}
	if !u.ObservedAt.IsZero() {
		ts, err := json.Marshal(u.ObservedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		env.ObservedAt = ts
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// Decode parses a wire payload into the raw field set without applying
// scoring rules; callers construct the validated update from the result.
// Returned errors are *FieldError values wrapping ErrDecode.
func Decode(data []byte) (Fields, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Fields{}, &FieldError{Field: "body", Reason: "not a valid JSON object"}
	}
	if strings.TrimSpace(env.MatchID) == "" {
		return Fields{}, &FieldError{Field: "matchId", Reason: "required"}
	}
	if env.GameNumber == nil {
		return Fields{}, &FieldError{Field: "gameNumber", Reason: "required"}
	}
	if env.TeamAScore == nil {
		return Fields{}, &FieldError{Field: "teamAScore", Reason: "required"}
	}
	if env.TeamBScore == nil {
		return Fields{}, &FieldError{Field: "teamBScore", Reason: "required"}
	}
	observedAt, err := parseTimestamp(env.ObservedAt)
	if err != nil {
		return Fields{}, err
	}
	return Fields{
		ID:         strings.TrimSpace(env.ID),
		MatchID:    strings.TrimSpace(env.MatchID),
		TeamA:      strings.TrimSpace(env.TeamA),
		TeamB:      strings.TrimSpace(env.TeamB),
		TeamAScore: *env.TeamAScore,
		TeamBScore: *env.TeamBScore,
		Winner:     strings.TrimSpace(env.Winner),
		GameNumber: *env.GameNumber,
		ObservedAt: observedAt,
	}, nil
}

// Fields is the decoded, schema-complete field set of a score payload.
// Scoring legality is not checked here.
type Fields struct {
	ID         string
	MatchID    string
	TeamA      string
	TeamB      string
	TeamAScore int
	TeamBScore int
	Winner     string
	GameNumber int
	ObservedAt time.Time
}

// Update applies the scoring rules and returns the validated update.
func (f Fields) Update() (model.ScoreUpdate, error) {
	return model.NewScoreUpdate(f.ID, f.MatchID, f.TeamA, f.TeamB,
		f.TeamAScore, f.TeamBScore, f.GameNumber, f.Winner, f.ObservedAt)
}

// parseTimestamp accepts an RFC3339 string or epoch milliseconds. An absent
// timestamp decodes to the zero time; the ingress substitutes "now".
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, perr := time.Parse(time.RFC3339Nano, s)
		if perr != nil {
			return time.Time{}, &FieldError{Field: "matchDateTime", Reason: "must be an RFC3339 timestamp or epoch milliseconds"}
		}
		return t, nil
	}
	if ms, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, &FieldError{Field: "matchDateTime", Reason: "must be an RFC3339 timestamp or epoch milliseconds"}
}
