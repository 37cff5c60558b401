package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
)

// MemoryStore implements Store with a mutex-guarded map. It backs tests and
// deployments without a configured database, honoring the same conditional
// write semantics as the Postgres store.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]model.MatchRow
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]model.MatchRow)}
}

func rowKey(matchID string, gameNumber int) string {
	return fmt.Sprintf("%s#%d", matchID, gameNumber)
}

// UpsertLatest inserts or overwrites the row.
func (s *MemoryStore) UpsertLatest(_ context.Context, row model.MatchRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rowKey(row.MatchID, row.GameNumber)] = row
	return nil
}

// InsertNewGame inserts only when the key is absent.
func (s *MemoryStore) InsertNewGame(_ context.Context, row model.MatchRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rowKey(row.MatchID, row.GameNumber)
	if _, exists := s.rows[key]; exists {
		return false, nil
	}
	s.rows[key] = row
	return true, nil
}

// UpdateScore overwrites the mutable fields of an existing row.
func (s *MemoryStore) UpdateScore(_ context.Context, row model.MatchRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rowKey(row.MatchID, row.GameNumber)
	existing, exists := s.rows[key]
	if !exists {
		return false, nil
	}
	existing.TeamAScore = row.TeamAScore
	existing.TeamBScore = row.TeamBScore
	existing.Winner = row.Winner
	existing.ObservedAt = row.ObservedAt
	s.rows[key] = existing
	return true, nil
}

// Get returns the row for the key.
func (s *MemoryStore) Get(_ context.Context, matchID string, gameNumber int) (model.MatchRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[rowKey(matchID, gameNumber)]
	if !ok {
		return model.MatchRow{}, ErrNotFound
	}
	return row, nil
}

// ListByMatch returns all games of a match ordered by game number.
func (s *MemoryStore) ListByMatch(_ context.Context, matchID string) ([]model.MatchRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.MatchRow
	for _, row := range s.rows {
		if row.MatchID == matchID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}

// Count returns the number of stored rows.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}
