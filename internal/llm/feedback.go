package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storyline/internal/timeline"
)

// FeedbackClient reports accepted and rejected suggestions to the
// training endpoint.
type FeedbackClient struct {
	URL    string
	client *http.Client
}

// NewFeedbackClient creates a feedback client posting to url.
func NewFeedbackClient(url string, timeout time.Duration) *FeedbackClient {
	return &FeedbackClient{
		URL:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FeedbackRequest represents the payload posted to the training endpoint.
type FeedbackRequest struct {
	Text   string  `json:"text"`
	Rating float64 `json:"rating"`
}

// Send posts one rating in [0, 1] for text.
func (c *FeedbackClient) Send(ctx context.Context, text string, rating float64) error {
	if rating < 0 || rating > 1 {
		return &timeline.ValidationError{Field: "rating", Message: "must be between 0 and 1"}
	}

	body, err := json.Marshal(FeedbackRequest{Text: text, Rating: rating})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &timeline.NetworkError{Op: "feedback", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &timeline.NetworkError{Op: "feedback", Err: fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))}
	}

	return nil
}
