package reward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-match/internal/scoring"
)

// HTTPSink posts results as JSON to the points endpoint.
type HTTPSink struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPSink posts to endpoint. A non-empty token is sent as a bearer token.
func NewHTTPSink(endpoint, token string, client *http.Client) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{endpoint: endpoint, token: token, client: client}
}

type pointsRequest struct {
	Game   string         `json:"game"`
	Result scoring.Result `json:"result"`
}

// GameName identifies this game to the points system.
const GameName = "memory-match"

func (s *HTTPSink) HandleResult(ctx context.Context, r scoring.Result) error {
	body, err := json.Marshal(pointsRequest{Game: GameName, Result: r})
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post result: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("points endpoint returned %s", resp.Status)
	}
	return nil
}
