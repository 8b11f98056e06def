package services

import (
	"context"

	"portfolio-backend/internal/models"
)

// CompletionRequest is a single blocking completion call.
type CompletionRequest struct {
	System    string
	Messages  []models.Turn
	MaxTokens int
}

// Completer issues one completion call and returns the first text block of
// the response, or "" when the response holds no text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}
