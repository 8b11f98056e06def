package services

import (
	"strings"

	"portfolio-backend/internal/models"
)

// BuildPortfolioContext renders the project list as the context block appended
// to the chat system prompt. It returns "" when there are no projects.
func BuildPortfolioContext(heading string, projects []models.Project) string {
	if len(projects) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(heading)
	for _, p := range projects {
		b.WriteString("\n- ")
		b.WriteString(p.Title)
		if p.Description != nil && *p.Description != "" {
			b.WriteString(": ")
			b.WriteString(*p.Description)
		}
		if len(p.Technologies) > 0 {
			b.WriteString(" (")
			b.WriteString(strings.Join(p.Technologies, ", "))
			b.WriteString(")")
		}
		if p.LiveURL != nil && *p.LiveURL != "" {
			b.WriteString(" — Live: ")
			b.WriteString(*p.LiveURL)
		}
		if p.GithubURL != nil && *p.GithubURL != "" {
			b.WriteString(" — GitHub: ")
			b.WriteString(*p.GithubURL)
		}
	}
	return b.String()
}
