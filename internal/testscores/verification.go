package testscores

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
)

// verifyWait bounds how long verification polls for one game's final state.
const verifyWait = 10 * time.Second

// gameState mirrors the read shape served by the matches endpoint.
type gameState struct {
	MatchID    string `json:"matchId"`
	GameNumber int    `json:"gameNumber"`
	TeamAScore int    `json:"teamAScore"`
	TeamBScore int    `json:"teamBScore"`
	Winner     string `json:"winner"`
}

// verifyResults checks every expected game outcome against the persisted
// state served by the API.
func verifyResults(ctx context.Context, config *Config, scripts []MatchScript, stats *Stats) error {
	logger.Get().Info(ctx, "verifying persisted match state")

	client := newHTTPClient(config.Timeout)

	for _, script := range scripts {
		for _, expected := range script.Results {
			if err := ctx.Err(); err != nil {
				return err
			}
			if verifyGame(ctx, client, config.BaseURL, expected) {
				stats.GamesVerified++
				continue
			}
			stats.VerificationFails++
			logger.Get().Warn(ctx, "game verification failed",
				logger.String("matchID", expected.MatchID),
				logger.Int("gameNumber", expected.GameNumber),
				logger.Int("teamAScore", expected.TeamAScore),
				logger.Int("teamBScore", expected.TeamBScore),
				logger.String("winner", expected.Winner))
		}
	}

	if stats.VerificationFails > 0 {
		return fmt.Errorf("%d of %d games failed verification",
			stats.VerificationFails, stats.GamesVerified+stats.VerificationFails)
	}
	logger.Get().Info(ctx, "all games verified", logger.Int("games", stats.GamesVerified))
	return nil
}

// verifyGame polls the game's persisted row until it matches the expected
// final state or the wait budget is spent.
func verifyGame(ctx context.Context, client *HTTPClient, baseURL string, expected GameResult) bool {
	url := fmt.Sprintf("%s/api/matches/%s?game=%d", baseURL, expected.MatchID, expected.GameNumber)
	deadline := time.Now().Add(verifyWait)

	for time.Now().Before(deadline) && ctx.Err() == nil {
		resp, err := client.Get(ctx, url)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		body, err := readResponseBody(resp)
		if err != nil || resp.StatusCode != http.StatusOK {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		var state gameState
		if err := json.Unmarshal(body, &state); err == nil &&
			state.TeamAScore == expected.TeamAScore &&
			state.TeamBScore == expected.TeamBScore &&
			state.Winner == expected.Winner {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
