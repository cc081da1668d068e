package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"

	"forum-chat/domain"
	"forum-chat/ws"
)

// HTTPHistory fetches conversations from the server's history endpoint.
type HTTPHistory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPHistory(baseURL string) *HTTPHistory {
	return &HTTPHistory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPHistory) GetHistory(ctx context.Context, a, b domain.UserID) ([]domain.Message, error) {
	url := fmt.Sprintf("%s/chat/history/%d/%d", h.baseURL, a, b)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := h.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request returned %s", response.Status)
	}

	var entries []ws.HistoryEntry
	if err := json.NewDecoder(response.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("history decoding failed: %w", err)
	}

	return lo.Map(entries, func(entry ws.HistoryEntry, _ int) domain.Message {
		return domain.Message{
			SenderID:   domain.UserID(entry.SenderID),
			SenderName: entry.SenderDisplayName,
			Body:       entry.Body,
			At:         entry.At,
		}
	}), nil
}
