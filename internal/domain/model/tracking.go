package model

import "time"

// TrackingEvent is a lightweight operational event reported alongside the
// score pipeline, e.g. shuttle tracking status pings.
type TrackingEvent struct {
	TrackingID string
	Status     string
	Timestamp  time.Time
}

// Equal reports exact equality; used for duplicate suppression on save.
func (e TrackingEvent) Equal(other TrackingEvent) bool {
	return e.TrackingID == other.TrackingID &&
		e.Status == other.Status &&
		e.Timestamp.Equal(other.Timestamp)
}
