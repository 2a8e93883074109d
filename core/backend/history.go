package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jinzhu/copier"
)

// Turn is one persisted history entry. Role is "user" or "assistant";
// Timestamp is kept as the backend's ISO-8601 string.
type Turn struct {
	Role      string
	Content   string
	Timestamp string
}

type historyTurn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// History returns the conversation persisted by the backend.
func (c *Client) History(ctx context.Context) ([]Turn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HistoryPath, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to %s: %w", HistoryPath, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Endpoint: HistoryPath, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var wire []historyTurn
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", HistoryPath, err)
	}

	turns := []Turn{}
	if err := copier.Copy(&turns, &wire); err != nil {
		return nil, fmt.Errorf("failed to convert history: %w", err)
	}
	return turns, nil
}

// Clear wipes the persisted conversation.
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.postJSON(ctx, ClearPath, struct{}{})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !isSuccess(resp.StatusCode) {
		return &StatusError{Endpoint: ClearPath, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return nil
}
