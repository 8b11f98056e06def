// Package cms reads project records from the Sanity content lake over its
// HTTP query API.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-backend/internal/models"
	"portfolio-backend/pkg/logger"
)

const projectFields = `{
    _id,
    title,
    slug,
    description,
    mainImage,
    technologies,
    githubUrl,
    liveUrl,
    caseStudyUrl,
    featured,
    publishedAt
  }`

const (
	allProjectsQuery      = `*[_type == "project"] | order(publishedAt desc) ` + projectFields
	featuredProjectsQuery = `*[_type == "project" && featured == true] | order(publishedAt desc) ` + projectFields
	projectBySlugQuery    = `*[_type == "project" && slug.current == $slug][0] {
    _id,
    title,
    slug,
    description,
    mainImage,
    technologies,
    githubUrl,
    liveUrl,
    caseStudyUrl,
    content,
    featured,
    publishedAt
  }`
)

type Options struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	// BaseURL overrides the derived API host, e.g. for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	dataset    string
	token      string
	images     *ImageURLBuilder
}

func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		host := "api.sanity.io"
		if opts.UseCDN {
			host = "apicdn.sanity.io"
		}
		base = fmt.Sprintf("https://%s.%s", opts.ProjectID, host)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(base, "/"),
		apiVersion: strings.TrimPrefix(opts.APIVersion, "v"),
		dataset:    opts.Dataset,
		token:      opts.Token,
		images:     NewImageURLBuilder(opts.ProjectID, opts.Dataset),
	}
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var docs []sanityProject
	if err := c.query(ctx, allProjectsQuery, nil, &docs); err != nil {
		return nil, err
	}
	return c.convertAll(docs), nil
}

func (c *Client) ListFeaturedProjects(ctx context.Context) ([]models.Project, error) {
	var docs []sanityProject
	if err := c.query(ctx, featuredProjectsQuery, nil, &docs); err != nil {
		return nil, err
	}
	return c.convertAll(docs), nil
}

func (c *Client) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var doc *sanityProject
	if err := c.query(ctx, projectBySlugQuery, map[string]any{"slug": slug}, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, models.ErrProjectNotFound
	}
	p := c.convert(*doc)
	if err := p.Validate(); err != nil {
		logger.Warnf("sanity: project %q is invalid: %v", slug, err)
		return nil, models.ErrProjectNotFound
	}
	return &p, nil
}

// ---- Helpers ----

func (c *Client) query(ctx context.Context, groq string, params map[string]any, out any) error {
	q := url.Values{}
	q.Set("query", groq)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode sanity param %s: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s", c.baseURL, c.apiVersion, url.PathEscape(c.dataset), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sanity query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sanity query failed (status %d): %s", resp.StatusCode, sanityErrorText(b))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode sanity response: %w", err)
	}
	if len(envelope.Result) == 0 {
		envelope.Result = json.RawMessage("null")
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode sanity result: %w", err)
	}
	return nil
}

func sanityErrorText(body []byte) string {
	var e struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Description != "" {
		return e.Error.Description
	}
	return strings.TrimSpace(string(body))
}

type sanityProject struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Slug  *struct {
		Current string `json:"current"`
	} `json:"slug"`
	Description *string `json:"description"`
	MainImage   *struct {
		Alt   *string `json:"alt"`
		Asset *struct {
			Ref string `json:"_ref"`
		} `json:"asset"`
	} `json:"mainImage"`
	Technologies []string        `json:"technologies"`
	GithubURL    *string         `json:"githubUrl"`
	LiveURL      *string         `json:"liveUrl"`
	CaseStudyURL *string         `json:"caseStudyUrl"`
	Content      json.RawMessage `json:"content"`
	Featured     *bool           `json:"featured"`
	PublishedAt  *time.Time      `json:"publishedAt"`
}

func (c *Client) convertAll(docs []sanityProject) []models.Project {
	out := make([]models.Project, 0, len(docs))
	for _, d := range docs {
		p := c.convert(d)
		if err := p.Validate(); err != nil {
			logger.Warnf("sanity: skipping project %q: %v", d.ID, err)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Client) convert(d sanityProject) models.Project {
	p := models.Project{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Technologies: d.Technologies,
		GithubURL:    d.GithubURL,
		LiveURL:      d.LiveURL,
		CaseStudyURL: d.CaseStudyURL,
	}
	if d.Slug != nil {
		p.Slug = d.Slug.Current
	}
	if d.Featured != nil {
		p.Featured = *d.Featured
	}
	if d.PublishedAt != nil {
		p.PublishedAt = *d.PublishedAt
	}
	if len(d.Content) > 0 && string(d.Content) != "null" {
		p.Content = d.Content
	}
	if d.MainImage != nil && d.MainImage.Asset != nil {
		if u, err := c.images.URL(d.MainImage.Asset.Ref, 0); err == nil {
			p.MainImage = &models.ProjectImage{URL: u, Alt: d.MainImage.Alt}
		} else {
			logger.Warnf("sanity: project %q has an unusable image: %v", d.ID, err)
		}
	}
	return p
}
