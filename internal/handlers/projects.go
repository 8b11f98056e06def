package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"portfolio-backend/internal/models"
)

type projectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Featured(ctx context.Context) ([]models.Project, error)
	BySlug(ctx context.Context, slug string) (*models.Project, error)
}

type ProjectHandler struct {
	projects projectService
}

func NewProjectHandler(projects projectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (h *ProjectHandler) Featured(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.Featured(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (h *ProjectHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil(projects []models.Project) []models.Project {
	if projects == nil {
		return []models.Project{}
	}
	return projects
}
