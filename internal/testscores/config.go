package testscores

import "time"

// Config holds configuration for the score load test.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumMatches int           // Number of matches to simulate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// ScoreEvent is one score submission in a match progression.
type ScoreEvent struct {
	MatchID    string `json:"matchId"`
	TeamA      string `json:"teamA"`
	TeamB      string `json:"teamB"`
	TeamAScore int    `json:"teamAScore"`
	TeamBScore int    `json:"teamBScore"`
	GameNumber int    `json:"gameNumber"`
	TS         string `json:"matchDateTime"`

	// NewGame selects the new-game endpoint for the opening submission.
	NewGame bool `json:"-"`
}

// MatchScript is one match's ordered submissions and expected outcomes.
// Events must be submitted in order; a game's opening event inserts the
// row the later updates modify.
type MatchScript struct {
	MatchID string
	Events  []ScoreEvent
	Results []GameResult
}

// GameResult is the expected final state of one game.
type GameResult struct {
	MatchID    string
	GameNumber int
	TeamAScore int
	TeamBScore int
	Winner     string
}

// AckResponse represents the response from a score submission.
type AckResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// Stats holds test statistics.
type Stats struct {
	MatchesGenerated  int
	EventsGenerated   int
	EventsSubmitted   int
	EventsPublished   int
	EventsSuppressed  int
	EventsFailed      int
	GamesVerified     int
	VerificationFails int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
