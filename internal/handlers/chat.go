package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"portfolio-backend/internal/models"
)

type chatRelay interface {
	CompleteChat(ctx context.Context, messages []models.Turn, portfolioContext string) (string, error)
	GenerateDescription(ctx context.Context, title string, technologies []string) (string, error)
}

type portfolioContextSource interface {
	PortfolioContext(ctx context.Context, heading string) (string, error)
}

type ChatHandler struct {
	relay          chatRelay
	projects       portfolioContextSource
	contextHeading string
}

func NewChatHandler(relay chatRelay, projects portfolioContextSource, contextHeading string) *ChatHandler {
	return &ChatHandler{
		relay:          relay,
		projects:       projects,
		contextHeading: contextHeading,
	}
}

// Chat relays the visitor's conversation and returns the assistant's reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages         json.RawMessage `json:"messages"`
		PortfolioContext string          `json:"portfolioContext"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	// messages must be present and a non-empty array
	raw := bytes.TrimSpace(req.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		writeJSON(w, http.StatusBadRequest, errorResp("Messages are required"))
		return
	}
	var messages []models.Turn
	if err := json.Unmarshal(raw, &messages); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid message format"))
		return
	}
	if len(messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("Messages are required"))
		return
	}

	reply, err := h.relay.CompleteChat(r.Context(), messages, req.PortfolioContext)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

// Context returns the portfolio context a chat page sends along with each request.
func (h *ChatHandler) Context(w http.ResponseWriter, r *http.Request) {
	text, err := h.projects.PortfolioContext(r.Context(), h.contextHeading)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ContextResponse{PortfolioContext: text})
}

func (h *ChatHandler) GenerateDescription(w http.ResponseWriter, r *http.Request) {
	var req models.DescriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	description, err := h.relay.GenerateDescription(r.Context(), req.Title, req.Technologies)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.DescriptionResponse{Description: description})
}
