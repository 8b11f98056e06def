package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"portfolio-backend/internal/models"
	"portfolio-backend/pkg/logger"
)

// ProjectSource is the read-only content provider.
type ProjectSource interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListFeaturedProjects(ctx context.Context) ([]models.Project, error)
	// GetProjectBySlug returns models.ErrProjectNotFound when no project matches.
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ProjectService serves project records from the source, keeping each result
// for ttl before asking the source again.
type ProjectService struct {
	source ProjectSource
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
}

func NewProjectService(source ProjectSource, cache Cache, ttl time.Duration) *ProjectService {
	return &ProjectService{source: source, cache: cache, ttl: ttl}
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	return cachedLoad(ctx, s, "projects:all", s.source.ListProjects)
}

func (s *ProjectService) Featured(ctx context.Context) ([]models.Project, error) {
	return cachedLoad(ctx, s, "projects:featured", s.source.ListFeaturedProjects)
}

func (s *ProjectService) BySlug(ctx context.Context, slug string) (*models.Project, error) {
	if slug == "" {
		return nil, &ValidationError{Message: "Slug is required"}
	}
	p, err := cachedLoad(ctx, s, "projects:slug:"+slug, func(ctx context.Context) (*models.Project, error) {
		return s.source.GetProjectBySlug(ctx, slug)
	})
	if errors.Is(err, models.ErrProjectNotFound) {
		return nil, &NotFoundError{Message: "Project not found"}
	}
	return p, err
}

// PortfolioContext renders every project as chat context under heading.
func (s *ProjectService) PortfolioContext(ctx context.Context, heading string) (string, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	return BuildPortfolioContext(heading, projects), nil
}

// cachedLoad reads key from the cache, falling back to load. Concurrent misses
// for the same key share a single load. Errors are never cached.
func cachedLoad[T any](ctx context.Context, s *ProjectService, key string, load func(context.Context) (T, error)) (T, error) {
	var out T
	ok, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		logger.Warnf("project cache read %s: %v", key, err)
	} else if ok {
		return out, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// The load is shared, so one caller going away must not cancel it for the rest.
		loadCtx := context.WithoutCancel(ctx)
		val, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, key, val, s.ttl); err != nil {
			logger.Warnf("project cache write %s: %v", key, err)
		}
		return val, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return out, err
		}
		return out, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return v.(T), nil
}
