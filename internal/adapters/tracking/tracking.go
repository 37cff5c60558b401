// Package tracking stores operational tracking events reported alongside
// the score pipeline.
package tracking

import (
	"context"
	"sync"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/metrics"
)

// Repository keeps tracking events in memory, grouped by tracking id.
// Saving an exact duplicate is a no-op returning the stored event.
type Repository struct {
	mu     sync.RWMutex
	events map[string][]model.TrackingEvent
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{events: make(map[string][]model.TrackingEvent)}
}

// Save appends the event under its tracking id unless an identical event
// was already recorded.
func (r *Repository) Save(_ context.Context, ev model.TrackingEvent) model.TrackingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.events[ev.TrackingID] {
		if existing.Equal(ev) {
			metrics.RecordTrackingDuplicate()
			return existing
		}
	}
	r.events[ev.TrackingID] = append(r.events[ev.TrackingID], ev)
	metrics.RecordTrackingEvent()
	return ev
}

// List returns all events recorded for a tracking id in arrival order.
func (r *Repository) List(_ context.Context, trackingID string) []model.TrackingEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.TrackingEvent, len(r.events[trackingID]))
	copy(out, r.events[trackingID])
	return out
}

// Count returns the total number of stored events.
func (r *Repository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, evs := range r.events {
		n += len(evs)
	}
	return n
}
