package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Messages         []Turn `json:"messages"`
	PortfolioContext string `json:"portfolioContext,omitempty"`
}

// ChatResponse is the reply from the AI chat.
type ChatResponse struct {
	Response string `json:"response"`
}

type DescriptionRequest struct {
	Title        string   `json:"title"`
	Technologies []string `json:"technologies"`
}

type DescriptionResponse struct {
	Description string `json:"description"`
}

type ContextResponse struct {
	PortfolioContext string `json:"portfolioContext,omitempty"`
}
