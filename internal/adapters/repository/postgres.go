package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/metrics"
)

// PostgresStore implements Store on PostgreSQL via database/sql and lib/pq.
// Every write is a single conditional statement keyed by
// (match_id, game_number), so redelivered events are harmless.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return db, nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the match_results table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS match_results (
			match_id     TEXT        NOT NULL,
			game_number  INT         NOT NULL,
			team_a       TEXT        NOT NULL DEFAULT '',
			team_b       TEXT        NOT NULL DEFAULT '',
			team_a_score INT         NOT NULL,
			team_b_score INT         NOT NULL,
			winner       TEXT        NOT NULL DEFAULT '',
			match_time   TIMESTAMPTZ,
			PRIMARY KEY (match_id, game_number)
		)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return s.classify(err)
	}
	return nil
}

// UpsertLatest inserts the row or overwrites every mutable field.
func (s *PostgresStore) UpsertLatest(ctx context.Context, row model.MatchRow) error {
	defer observeUpsert(time.Now())
	const query = `
		INSERT INTO match_results
			(match_id, game_number, team_a, team_b, team_a_score, team_b_score, winner, match_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (match_id, game_number) DO UPDATE SET
			team_a = EXCLUDED.team_a,
			team_b = EXCLUDED.team_b,
			team_a_score = EXCLUDED.team_a_score,
			team_b_score = EXCLUDED.team_b_score,
			winner = EXCLUDED.winner,
			match_time = EXCLUDED.match_time`
	_, err := s.db.ExecContext(ctx, query,
		row.MatchID, row.GameNumber, row.TeamA, row.TeamB,
		row.TeamAScore, row.TeamBScore, row.Winner, nullTime(row.ObservedAt))
	return s.classify(err)
}

// InsertNewGame inserts only when absent; an existing row is left untouched.
func (s *PostgresStore) InsertNewGame(ctx context.Context, row model.MatchRow) (bool, error) {
	defer observeUpsert(time.Now())
	const query = `
		INSERT INTO match_results
			(match_id, game_number, team_a, team_b, team_a_score, team_b_score, winner, match_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (match_id, game_number) DO NOTHING`
	res, err := s.db.ExecContext(ctx, query,
		row.MatchID, row.GameNumber, row.TeamA, row.TeamB,
		row.TeamAScore, row.TeamBScore, row.Winner, nullTime(row.ObservedAt))
	if err != nil {
		return false, s.classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.classify(err)
	}
	return n > 0, nil
}

// UpdateScore overwrites scores, winner, and timestamp of an existing row.
func (s *PostgresStore) UpdateScore(ctx context.Context, row model.MatchRow) (bool, error) {
	defer observeUpsert(time.Now())
	const query = `
		UPDATE match_results
		SET team_a_score = $1, team_b_score = $2, winner = $3, match_time = $4
		WHERE match_id = $5 AND game_number = $6`
	res, err := s.db.ExecContext(ctx, query,
		row.TeamAScore, row.TeamBScore, row.Winner, nullTime(row.ObservedAt),
		row.MatchID, row.GameNumber)
	if err != nil {
		return false, s.classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.classify(err)
	}
	return n > 0, nil
}

// Get returns the row for the key, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, matchID string, gameNumber int) (model.MatchRow, error) {
	const query = `
		SELECT match_id, game_number, team_a, team_b, team_a_score, team_b_score, winner, match_time
		FROM match_results
		WHERE match_id = $1 AND game_number = $2`
	return s.scanRow(s.db.QueryRowContext(ctx, query, matchID, gameNumber))
}

// ListByMatch returns all games of a match ordered by game number.
func (s *PostgresStore) ListByMatch(ctx context.Context, matchID string) ([]model.MatchRow, error) {
	const query = `
		SELECT match_id, game_number, team_a, team_b, team_a_score, team_b_score, winner, match_time
		FROM match_results
		WHERE match_id = $1
		ORDER BY game_number`
	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, s.classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MatchRow
	for rows.Next() {
		var row model.MatchRow
		var matchTime sql.NullTime
		if err := rows.Scan(&row.MatchID, &row.GameNumber, &row.TeamA, &row.TeamB,
			&row.TeamAScore, &row.TeamBScore, &row.Winner, &matchTime); err != nil {
			return nil, s.classify(err)
		}
		if matchTime.Valid {
			row.ObservedAt = matchTime.Time
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err)
	}
	return out, nil
}

// Count returns the number of stored rows.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_results`).Scan(&n); err != nil {
		return 0, s.classify(err)
	}
	return n, nil
}

func (s *PostgresStore) scanRow(r *sql.Row) (model.MatchRow, error) {
	var row model.MatchRow
	var matchTime sql.NullTime
	err := r.Scan(&row.MatchID, &row.GameNumber, &row.TeamA, &row.TeamB,
		&row.TeamAScore, &row.TeamBScore, &row.Winner, &matchTime)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MatchRow{}, ErrNotFound
	}
	if err != nil {
		return model.MatchRow{}, s.classify(err)
	}
	if matchTime.Valid {
		row.ObservedAt = matchTime.Time
	}
	return row, nil
}

// classify maps driver errors onto the store's sentinel kinds. Integrity
// violations (pq class 23) are permanent; everything else is treated as
// transient and retriable.
func (s *PostgresStore) classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		metrics.RecordStoreError("constraint")
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	metrics.RecordStoreError("unavailable")
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func observeUpsert(start time.Time) {
	metrics.RecordUpsertLatency(float64(time.Since(start).Milliseconds()))
}
