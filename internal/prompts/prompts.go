// Package prompts loads the fixed prompt texts used by the chat relay.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type promptFile struct {
	OwnerName           string `yaml:"owner_name"`
	ContextHeading      string `yaml:"context_heading"`
	DescriptionTemplate string `yaml:"description_template"`
	System              string `yaml:"system"`
}

// Set holds the parsed prompts. It is immutable after loading and safe for
// concurrent use.
type Set struct {
	owner       string
	system      string
	heading     *template.Template
	description *template.Template
}

var funcs = template.FuncMap{"join": strings.Join}

// Default returns the embedded prompt set.
func Default() (*Set, error) {
	return Parse(defaultPrompts)
}

// Load reads a prompt file from path, or the embedded defaults when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Set, error) {
	var s promptFile
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}
	if strings.TrimSpace(s.System) == "" {
		return nil, fmt.Errorf("prompts: system prompt is empty")
	}

	heading, err := template.New("context_heading").Funcs(funcs).Parse(s.ContextHeading)
	if err != nil {
		return nil, fmt.Errorf("prompts: context_heading: %w", err)
	}
	description, err := template.New("description").Funcs(funcs).Parse(s.DescriptionTemplate)
	if err != nil {
		return nil, fmt.Errorf("prompts: description_template: %w", err)
	}

	return &Set{
		owner:       s.OwnerName,
		system:      s.System,
		heading:     heading,
		description: description,
	}, nil
}

// System is the biography briefing sent with every chat completion.
func (s *Set) System() string {
	return s.system
}

func (s *Set) Owner() string {
	return s.owner
}

// ContextHeading is the first line of the generated portfolio context.
func (s *Set) ContextHeading() string {
	var b strings.Builder
	if err := s.heading.Execute(&b, struct{ Owner string }{s.owner}); err != nil {
		return ""
	}
	return b.String()
}

// Description renders the user turn for project description generation.
func (s *Set) Description(title string, technologies []string) (string, error) {
	var b strings.Builder
	err := s.description.Execute(&b, struct {
		Title        string
		Technologies []string
	}{title, technologies})
	if err != nil {
		return "", fmt.Errorf("failed to render description prompt: %w", err)
	}
	return b.String(), nil
}
