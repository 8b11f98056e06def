package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-backend/internal/models"
	"portfolio-backend/pkg/logger"
)

const projectColumns = `id, title, slug, description, image_url, image_alt, technologies,
	github_url, live_url, case_study_url, featured, published_at`

// ProjectRepo serves project records from a self-hosted Postgres table.
type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) ListProjects(ctx context.Context) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY published_at DESC`
	return r.list(ctx, query)
}

func (r *ProjectRepo) ListFeaturedProjects(ctx context.Context) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE featured ORDER BY published_at DESC`
	return r.list(ctx, query)
}

func (r *ProjectRepo) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + `, content FROM projects WHERE slug = $1`

	var (
		row     projectRow
		content []byte
	)
	dest := append(row.dest(), &content)
	if err := r.pool.QueryRow(ctx, query, slug).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project %q: %w", slug, err)
	}

	p := row.project()
	if len(content) > 0 {
		p.Content = content
	}
	if err := p.Validate(); err != nil {
		logger.Warnf("postgres: project %q is invalid: %v", slug, err)
		return nil, models.ErrProjectNotFound
	}
	return &p, nil
}

func (r *ProjectRepo) list(ctx context.Context, query string) ([]models.Project, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var row projectRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p := row.project()
		if err := p.Validate(); err != nil {
			logger.Warnf("postgres: skipping project %q: %v", row.ID, err)
			continue
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

type projectRow struct {
	models.Project
	imageURL *string
	imageAlt *string
}

func (r *projectRow) dest() []any {
	return []any{
		&r.ID, &r.Title, &r.Slug, &r.Description, &r.imageURL, &r.imageAlt, &r.Technologies,
		&r.GithubURL, &r.LiveURL, &r.CaseStudyURL, &r.Featured, &r.PublishedAt,
	}
}

func (r *projectRow) project() models.Project {
	p := r.Project
	if r.imageURL != nil && *r.imageURL != "" {
		p.MainImage = &models.ProjectImage{URL: *r.imageURL, Alt: r.imageAlt}
	}
	return p
}
