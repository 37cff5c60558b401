package testscores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/pkg/logger"
)

// HTTPClient wraps http.Client with a shared timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitMatches plays every match script against the service. Matches are
// sharded across workers; within a match, events go out in order.
func submitMatches(ctx context.Context, config *Config, scripts []MatchScript, stats *Stats) error {
	logger.Get().Info(ctx, "submitting match scripts",
		logger.Int("matches", len(scripts)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	work := make(chan MatchScript)

	var submitted, published, suppressed, failed int64

	var wg sync.WaitGroup
	workerCount := minInt(config.Workers, len(scripts))
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for script := range work {
				for _, ev := range script.Events {
					if ctx.Err() != nil {
						return
					}
					atomic.AddInt64(&submitted, 1)
					status, err := submitEvent(ctx, client, config.BaseURL, ev)
					switch {
					case err != nil:
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							logger.Get().Warn(ctx, "submission failed",
								logger.String("matchID", ev.MatchID),
								logger.Error(err))
						}
					case status == "suppressed":
						atomic.AddInt64(&suppressed, 1)
					default:
						atomic.AddInt64(&published, 1)
					}
					if ev.NewGame {
						// Let the opening insert land before updating it.
						waitForGame(ctx, client, config.BaseURL, ev.MatchID, ev.GameNumber)
					}
				}
			}
		}()
	}

	for _, script := range scripts {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return ctx.Err()
		case work <- script:
		}
	}
	close(work)
	wg.Wait()

	stats.EventsSubmitted = int(submitted)
	stats.EventsPublished = int(published)
	stats.EventsSuppressed = int(suppressed)
	stats.EventsFailed = int(failed)

	logger.Get().Info(ctx, "submission complete",
		logger.Int("submitted", stats.EventsSubmitted),
		logger.Int("published", stats.EventsPublished),
		logger.Int("suppressed", stats.EventsSuppressed),
		logger.Int("failed", stats.EventsFailed))
	return nil
}

// submitEvent posts one score event on its channel endpoint and returns
// the acknowledged status.
func submitEvent(ctx context.Context, client *HTTPClient, baseURL string, ev ScoreEvent) (string, error) {
	path := "/api/update-score"
	if ev.NewGame {
		path = "/api/new-game"
	}

	resp, err := client.Post(ctx, baseURL+path, ev)
	if err != nil {
		return "", err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var ack AckResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return "", fmt.Errorf("failed to decode ack: %w", err)
	}
	return ack.Status, nil
}

// waitForGame polls until the game row is queryable or the wait budget is
// spent. The pipeline persists asynchronously.
func waitForGame(ctx context.Context, client *HTTPClient, baseURL, matchID string, gameNumber int) {
	url := fmt.Sprintf("%s/api/matches/%s?game=%d", baseURL, matchID, gameNumber)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		resp, err := client.Get(ctx, url)
		if err == nil {
			_, _ = readResponseBody(resp)
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
