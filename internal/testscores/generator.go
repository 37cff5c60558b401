package testscores

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/shirlenelss/thomas-cup-kafka/internal/domain/rules"
	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
)

// Rally outcome weighting: out of rallyDivisor rallies, sideABias go to
// team A. A is slightly favored so decided games terminate quickly.
const (
	rallyDivisor = 100
	sideABias    = 55
)

var teamNames = []string{
	"Malaysia", "Indonesia", "Denmark", "China", "Japan",
	"India", "Thailand", "Korea", "Chinese Taipei", "France",
}

func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// GenerateMatches produces rally-by-rally score progressions for the
// configured number of matches, plus the expected final state per game.
func GenerateMatches(ctx context.Context, config *Config, stats *Stats) ([]MatchScript, error) {
	logger.Get().Info(ctx, "generating match progressions", logger.Int("numMatches", config.NumMatches))

	scripts := make([]MatchScript, 0, config.NumMatches)
	totalEvents := 0

	for i := 0; i < config.NumMatches; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		script := generateMatch()
		totalEvents += len(script.Events)
		scripts = append(scripts, script)
	}

	stats.MatchesGenerated = config.NumMatches
	stats.EventsGenerated = totalEvents
	logger.Get().Info(ctx, "generated match progressions",
		logger.Int("matches", len(scripts)),
		logger.Int("events", totalEvents))

	return scripts, nil
}

// generateMatch simulates a best-of-three match rally by rally. Every
// intermediate score tuple is legal for its game.
func generateMatch() MatchScript {
	matchID := uuid.New().String()
	teamA := teamNames[randomInt(int64(len(teamNames)))]
	teamB := teamNames[randomInt(int64(len(teamNames)))]
	for teamB == teamA {
		teamB = teamNames[randomInt(int64(len(teamNames)))]
	}

	var events []ScoreEvent
	var results []GameResult

	ts := time.Now().UTC().Add(-time.Hour)
	winsA, winsB := 0, 0

	for game := 1; game <= 3 && winsA < 2 && winsB < 2; game++ {
		a, b := 0, 0
		events = append(events, ScoreEvent{
			MatchID: matchID, TeamA: teamA, TeamB: teamB,
			TeamAScore: a, TeamBScore: b, GameNumber: game,
			TS: ts.Format(time.RFC3339), NewGame: true,
		})

		for !rules.IsComplete(game, a, b) {
			ts = ts.Add(time.Minute)
			if randomInt(rallyDivisor) < sideABias {
				a++
			} else {
				b++
			}
			events = append(events, ScoreEvent{
				MatchID: matchID, TeamA: teamA, TeamB: teamB,
				TeamAScore: a, TeamBScore: b, GameNumber: game,
				TS: ts.Format(time.RFC3339),
			})
		}

		winner := teamB
		if side, ok := rules.Winner(game, a, b); ok && side == rules.SideTeamA {
			winner = teamA
		}
		if winner == teamA {
			winsA++
		} else {
			winsB++
		}
		results = append(results, GameResult{
			MatchID: matchID, GameNumber: game,
			TeamAScore: a, TeamBScore: b, Winner: winner,
		})
		ts = ts.Add(5 * time.Minute)
	}

	return MatchScript{MatchID: matchID, Events: events, Results: results}
}
