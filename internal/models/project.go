package models

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrProjectNotFound = errors.New("project not found")

// Project is a portfolio entry owned by the content provider.
type Project struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  *string         `json:"description,omitempty"`
	MainImage    *ProjectImage   `json:"mainImage,omitempty"`
	Technologies []string        `json:"technologies"`
	GithubURL    *string         `json:"githubUrl,omitempty"`
	LiveURL      *string         `json:"liveUrl,omitempty"`
	CaseStudyURL *string         `json:"caseStudyUrl,omitempty"`
	Featured     bool            `json:"featured"`
	PublishedAt  time.Time       `json:"publishedAt"`
	Content      json.RawMessage `json:"content,omitempty"` // portable text blocks, single lookups only
}

type ProjectImage struct {
	URL string  `json:"url"`
	Alt *string `json:"alt,omitempty"`
}

// Validate checks the fields every rendered project needs.
func (p *Project) Validate() error {
	switch {
	case p.ID == "":
		return errors.New("project id is empty")
	case p.Title == "":
		return errors.New("project title is empty")
	case p.Slug == "":
		return errors.New("project slug is empty")
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	return nil
}
