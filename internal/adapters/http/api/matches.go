// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shirlenelss/thomas-cup-kafka/internal/adapters/repository"
	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/model"
)

// MatchesHandler serves persisted match state.
type MatchesHandler struct {
	deps Dependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps Dependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// gameResponse is the read shape of one persisted game.
type gameResponse struct {
	MatchID    string `json:"matchId"`
	GameNumber int    `json:"gameNumber"`
	TeamA      string `json:"teamA"`
	TeamB      string `json:"teamB"`
	TeamAScore int    `json:"teamAScore"`
	TeamBScore int    `json:"teamBScore"`
	Winner     string `json:"winner,omitempty"`
}

func toGameResponse(row model.MatchRow) gameResponse {
	return gameResponse{
		MatchID:    row.MatchID,
		GameNumber: row.GameNumber,
		TeamA:      row.TeamA,
		TeamB:      row.TeamB,
		TeamAScore: row.TeamAScore,
		TeamBScore: row.TeamBScore,
		Winner:     row.Winner,
	}
}

// HandleGetMatch handles GET /api/matches/{match_id} requests. The optional
// ?game=N query narrows the response to a single game.
func (h *MatchesHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /api/matches/
	path := strings.TrimPrefix(r.URL.Path, "/api/matches/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	if rawGame := r.URL.Query().Get("game"); rawGame != "" {
		game, err := strconv.Atoi(rawGame)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		row, err := h.deps.GetGame(r.Context(), path, game)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, toGameResponse(row))
		return
	}

	rows, err := h.deps.ListGames(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "not_found", repository.ErrNotFound)
		return
	}
	out := make([]gameResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toGameResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}
