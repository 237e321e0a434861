package suggestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dukerupert/homehq/internal/apperr"
)

const defaultClientTimeout = 5 * time.Second

// Client talks to an external suggestion function over HTTP. It satisfies
// the same Engine contract as the in-process Service.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type suggestPayload struct {
	FamilyID int64 `json:"family_id"`
	Request
}

type suggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

func (c *Client) Suggest(ctx context.Context, familyID int64, req Request) ([]Suggestion, error) {
	body, err := json.Marshal(suggestPayload{FamilyID: familyID, Request: req})
	if err != nil {
		return nil, fmt.Errorf("marshal suggest request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build suggest request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeSuggestionEngine, "suggestion engine unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.CodeSuggestionEngine,
			fmt.Sprintf("suggestion engine returned status %d", resp.StatusCode))
	}

	var decoded suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperr.Wrap(apperr.CodeSuggestionEngine, "decode suggestion response", err)
	}

	return decoded.Suggestions, nil
}
