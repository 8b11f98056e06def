package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/prompts"
)

const noResponseText = "No response generated"

// ChatRelay forwards conversations to the completion API. It keeps no state
// between calls; every invocation carries its own history and context.
type ChatRelay struct {
	completer            Completer
	prompts              *prompts.Set
	chatMaxTokens        int
	descriptionMaxTokens int
	tracer               trace.Tracer
}

func NewChatRelay(completer Completer, prompts *prompts.Set, chatMaxTokens, descriptionMaxTokens int) *ChatRelay {
	return &ChatRelay{
		completer:            completer,
		prompts:              prompts,
		chatMaxTokens:        chatMaxTokens,
		descriptionMaxTokens: descriptionMaxTokens,
		tracer:               otel.Tracer("portfolio-backend/services"),
	}
}

// CompleteChat returns the assistant reply for the conversation so far.
func (r *ChatRelay) CompleteChat(ctx context.Context, messages []models.Turn, portfolioContext string) (string, error) {
	if err := validateTurns(messages); err != nil {
		return "", err
	}

	ctx, span := r.tracer.Start(ctx, "ChatRelay.CompleteChat", trace.WithAttributes(
		attribute.String("llm.model", r.completer.Model()),
		attribute.Int("chat.turns", len(messages)),
		attribute.Bool("chat.has_context", portfolioContext != ""),
	))
	defer span.End()

	text, err := r.completer.Complete(ctx, CompletionRequest{
		System:    r.SystemPrompt(portfolioContext),
		Messages:  messages,
		MaxTokens: r.chatMaxTokens,
	})
	if err != nil {
		err = asUpstreamError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if text == "" {
		return noResponseText, nil
	}
	return text, nil
}

// SystemPrompt is the biography briefing, followed by the portfolio context
// when one is given.
func (r *ChatRelay) SystemPrompt(portfolioContext string) string {
	system := r.prompts.System()
	if portfolioContext != "" {
		system += "\n\n" + portfolioContext
	}
	return system
}

// GenerateDescription drafts a short project description for the CMS.
func (r *ChatRelay) GenerateDescription(ctx context.Context, title string, technologies []string) (string, error) {
	if title == "" || technologies == nil {
		return "", &ValidationError{Message: "Title and technologies are required"}
	}

	prompt, err := r.prompts.Description(title, technologies)
	if err != nil {
		return "", err
	}

	ctx, span := r.tracer.Start(ctx, "ChatRelay.GenerateDescription", trace.WithAttributes(
		attribute.String("llm.model", r.completer.Model()),
		attribute.Int("project.technologies", len(technologies)),
	))
	defer span.End()

	text, err := r.completer.Complete(ctx, CompletionRequest{
		Messages:  []models.Turn{{Role: models.RoleUser, Content: prompt}},
		MaxTokens: r.descriptionMaxTokens,
	})
	if err != nil {
		err = asUpstreamError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

func validateTurns(messages []models.Turn) error {
	if len(messages) == 0 {
		return &ValidationError{Message: "Messages are required"}
	}
	for _, m := range messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			return &ValidationError{Message: "Invalid message role"}
		}
	}
	return nil
}

// asUpstreamError keeps typed errors from the completer and wraps anything
// else with its message unchanged.
func asUpstreamError(err error) error {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation
	}
	return &UpstreamError{Message: err.Error(), Err: err}
}
