// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
)

// EventsHandler handles tracking event requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// trackingEventRequest mirrors the wire schema for POST /events.
type trackingEventRequest struct {
	TrackingID string `json:"trackingId"`
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
}

func (e trackingEventRequest) validate() (time.Time, error) {
	switch {
	case strings.TrimSpace(e.TrackingID) == "":
		return time.Time{}, errors.New("missing trackingId")
	case strings.TrimSpace(e.Status) == "":
		return time.Time{}, errors.New("missing status")
	case strings.TrimSpace(e.Timestamp) == "":
		return time.Time{}, errors.New("missing timestamp")
	}
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return time.Time{}, errors.New("invalid timestamp; must be RFC3339")
	}
	if ts.After(time.Now()) {
		return time.Time{}, errors.New("timestamp must be in the past or present")
	}
	return ts, nil
}

// HandlePostEvent handles POST /events requests. Saving is idempotent: an
// exact duplicate of a stored event acknowledges without a second record.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req trackingEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ts, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.SaveTrackingEvent(r.Context(), model.TrackingEvent{
		TrackingID: req.TrackingID,
		Status:     req.Status,
		Timestamp:  ts,
	})
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: req.TrackingID})
}

// trackingEventResponse is the read shape of one stored event.
type trackingEventResponse struct {
	TrackingID string    `json:"trackingId"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// HandleGetEvents handles GET /events/{tracking_id} requests.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_events"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /events/
	path := strings.TrimPrefix(r.URL.Path, "/events/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	events := h.deps.TrackingEvents(r.Context(), path)
	out := make([]trackingEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, trackingEventResponse{
			TrackingID: ev.TrackingID,
			Status:     ev.Status,
			Timestamp:  ev.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
