package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"portfolio-backend/internal/models"
)

const noResponseReceived = "No response received"

// HTTPTransport talks to the relay's HTTP API. It sets no request timeout of
// its own; cancel through the context.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPTransport(baseURL string, httpClient *http.Client) *HTTPTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (t *HTTPTransport) SendChat(ctx context.Context, messages []models.Turn, portfolioContext string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{Messages: messages, PortfolioContext: portfolioContext})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/ai/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var data struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("invalid response from server: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || data.Response == "" {
		if data.Error != "" {
			return "", errors.New(data.Error)
		}
		return "", errors.New(noResponseReceived)
	}
	return data.Response, nil
}

// FetchContext returns the portfolio context the site would embed in its chat page.
func (t *HTTPTransport) FetchContext(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/ai/context", nil)
	if err != nil {
		return "", err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return "", errors.New(e.Error)
		}
		return "", fmt.Errorf("context request failed with status %d", resp.StatusCode)
	}

	var data models.ContextResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("invalid response from server: %w", err)
	}
	return data.PortfolioContext, nil
}
