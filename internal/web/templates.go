// ===== internal/web/templates.go =====
package web

import (
	"embed"
	"fmt"
	"html/template"
	"path"
	"strings"

	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateManager handles template loading and rendering
type TemplateManager struct {
	templates map[string]*template.Template
}

// NewTemplateManager creates a new template manager
func NewTemplateManager() *TemplateManager {
	return &TemplateManager{
		templates: make(map[string]*template.Template),
	}
}

// LoadTemplates parses the embedded templates
func (tm *TemplateManager) LoadTemplates() error {
	files, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	for _, f := range files {
		name := strings.TrimSuffix(f.Name(), ".tmpl")
		tmpl, err := template.ParseFS(templateFS, path.Join("templates", f.Name()))
		if err != nil {
			zap.S().Warnf("Failed to load template %s: %v", f.Name(), err)
			continue
		}

		tm.templates[name] = tmpl
		zap.S().Debugf("Loaded template: %s", f.Name())
	}

	return nil
}

// Render renders a template with the given data
func (tm *TemplateManager) Render(name string, data interface{}) (string, error) {
	tmpl, exists := tm.templates[name]
	if !exists {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// HasTemplate checks if a template exists
func (tm *TemplateManager) HasTemplate(name string) bool {
	_, exists := tm.templates[name]
	return exists
}
