// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/bus"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/publisher"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/wire"
)

// ScoresHandler handles inbound score submissions on the three channels.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleLatest handles POST /api/match-results requests.
func (h *ScoresHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.match_results", publisher.IntentLatest)
}

// HandleNewGame handles POST /api/new-game requests.
func (h *ScoresHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.new_game", publisher.IntentNewGame)
}

// HandleUpdateScore handles POST /api/update-score requests.
func (h *ScoresHandler) HandleUpdateScore(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.update_score", publisher.IntentScoreUpdate)
}

func (h *ScoresHandler) submit(w http.ResponseWriter, r *http.Request, op string, intent publisher.Intent) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	fields, err := wire.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	decision, err := h.deps.Submit(r.Context(), intent, fields)
	switch {
	case err == nil:
	case errors.Is(err, bus.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	case errors.Is(err, publisher.ErrEmitFailed):
		writeError(w, http.StatusBadGateway, "publish_failed", WrapKind(op, ErrPublish, err))
		return
	default:
		// Scoring rule violations surface synchronously as 400s.
		writeError(w, http.StatusBadRequest, "validation_failed", WrapKind(op, ErrBadRequest, err))
		return
	}

	if decision == publisher.Suppressed {
		writeJSON(w, http.StatusOK, ackResponse{Status: "suppressed", ID: fields.ID})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "published", ID: fields.ID})
}
