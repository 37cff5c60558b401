// Package repository defines the durable match store and its errors.
package repository

import (
	"context"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
)

// Store provides idempotent writes and reads over match rows keyed by
// (match id, game number). All writes are single atomic statements; repeated
// application of the same event produces the same stored state.
type Store interface {
	// UpsertLatest inserts the row or overwrites all mutable fields with
	// the incoming values. Last write wins by arrival order.
	UpsertLatest(ctx context.Context, row model.MatchRow) error

	// InsertNewGame inserts the row only when absent. Returns false when
	// a row for the key already exists; the first writer wins.
	InsertNewGame(ctx context.Context, row model.MatchRow) (bool, error)

	// UpdateScore overwrites scores, winner, and timestamp of an existing
	// row. Returns false when no row exists for the key.
	UpdateScore(ctx context.Context, row model.MatchRow) (bool, error)

	// Get returns the row for the key, or ErrNotFound.
	Get(ctx context.Context, matchID string, gameNumber int) (model.MatchRow, error)

	// ListByMatch returns all games of a match ordered by game number.
	ListByMatch(ctx context.Context, matchID string) ([]model.MatchRow, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)
}
