package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dodam/internal/domain"
)

// Client talks to the emotion model server, an opaque collaborator
// mapping an utterance to a percentage distribution over fixed labels.
type Client struct {
	baseURL string
	client  *http.Client
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Classify posts the utterance and returns the label distribution.
func (c *Client) Classify(ctx context.Context, text string) (domain.EmotionScores, error) {
	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("classifier returned %s", resp.Status)
	}
	var out struct {
		Scores domain.EmotionScores `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if len(out.Scores) == 0 {
		return nil, errors.New("classifier returned no scores")
	}
	return out.Scores, nil
}

// Gate suppresses downstream aggregation for utterances the model
// considers predominantly neutral. The utterance itself is still
// logged; only the daily summary accumulation is skipped.
type Gate struct {
	Label     string
	Threshold float64
}

// Suppress reports whether the distribution trips the gate.
func (g Gate) Suppress(scores domain.EmotionScores) bool {
	v, ok := scores[g.Label]
	return ok && v >= g.Threshold
}
