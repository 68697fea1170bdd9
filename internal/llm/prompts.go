package llm

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

const (
	// TemplateGeneric wraps a free-form user prompt.
	TemplateGeneric = "generic_text_generation"
	// TemplateJobParser asks for a job posting as JSON.
	TemplateJobParser = "job_parser"
)

//go:embed prompts/*.tmpl
var promptFiles embed.FS

var (
	promptsOnce sync.Once
	promptSet   *template.Template
	promptErr   error
)

// Renderer renders a named prompt template with the given variables.
type Renderer interface {
	Render(name string, vars map[string]any) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(name string, vars map[string]any) (string, error)

func (f RendererFunc) Render(name string, vars map[string]any) (string, error) {
	return f(name, vars)
}

// EmbeddedPrompts renders the templates shipped with the binary.
type EmbeddedPrompts struct{}

// Render executes the template name (without extension).
func (EmbeddedPrompts) Render(name string, vars map[string]any) (string, error) {
	promptsOnce.Do(func() {
		promptSet, promptErr = template.New("prompts").Option("missingkey=error").ParseFS(promptFiles, "prompts/*.tmpl")
	})
	if promptErr != nil {
		return "", fmt.Errorf("load prompt templates: %w", promptErr)
	}
	tmpl := promptSet.Lookup(name + ".tmpl")
	if tmpl == nil {
		return "", fmt.Errorf("prompt template %q not found", name)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
