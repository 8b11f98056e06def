package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

type adminAuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error)
}

// toolBridge is the connected MCP server. A nil bridge means MCP is not configured.
type toolBridge interface {
	ListTools(ctx context.Context) ([]models.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*models.ToolResult, error)
}

type AdminHandler struct {
	auth  adminAuthService
	tools toolBridge
}

func NewAdminHandler(auth adminAuthService, tools toolBridge) *AdminHandler {
	return &AdminHandler{auth: auth, tools: tools}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	tokens, err := h.auth.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *AdminHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	if h.tools == nil {
		handleServiceError(w, r, errMCPUnavailable)
		return
	}

	tools, err := h.tools.ListTools(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (h *AdminHandler) CallTool(w http.ResponseWriter, r *http.Request) {
	if h.tools == nil {
		handleServiceError(w, r, errMCPUnavailable)
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("Tool name is required"))
		return
	}

	var req models.ToolCallRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
			return
		}
	}

	result, err := h.tools.CallTool(r.Context(), name, req.Arguments)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

var errMCPUnavailable = &services.UnavailableError{Message: "MCP server is not configured"}
