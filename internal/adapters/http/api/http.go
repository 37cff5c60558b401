// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/publisher"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/wire"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit validates the decoded payload and offers it to the publisher
	// under the given intent.
	Submit(ctx context.Context, intent publisher.Intent, fields wire.Fields) (publisher.Decision, error)

	// Read operations expose persisted match state.
	GetGame(ctx context.Context, matchID string, gameNumber int) (model.MatchRow, error)
	ListGames(ctx context.Context, matchID string) ([]model.MatchRow, error)

	// Tracking event operations.
	SaveTrackingEvent(ctx context.Context, ev model.TrackingEvent) model.TrackingEvent
	TrackingEvents(ctx context.Context, trackingID string) []model.TrackingEvent
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	scoresHandler  *ScoresHandler
	matchesHandler *MatchesHandler
	eventsHandler  *EventsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		scoresHandler:  NewScoresHandler(deps),
		matchesHandler: NewMatchesHandler(deps),
		eventsHandler:  NewEventsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/match-results", MetricsMiddleware(s.scoresHandler.HandleLatest, "match_results"))
	mux.HandleFunc("/api/new-game", MetricsMiddleware(s.scoresHandler.HandleNewGame, "new_game"))
	mux.HandleFunc("/api/update-score", MetricsMiddleware(s.scoresHandler.HandleUpdateScore, "update_score"))
	mux.HandleFunc("/api/matches/", MetricsMiddleware(s.matchesHandler.HandleGetMatch, "matches"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events_get"))
}

type ackResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
