package prompt

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// DefaultSystem is the instruction given to each speaker unless overridden
// per backend in configuration.
const DefaultSystem = "Provide a thoughtful, critical, and objective response to the previous message. " +
	"You may offer a different, fact-based perspective when appropriate. " +
	"Keep responses concise (2-3 sentences). Avoid bullet points."

// Seed returns the opening user message that hands the topic to the first
// speaker.
func Seed(topic string) string {
	return fmt.Sprintf("Let's discuss: %s", topic)
}

// Template represents a prompt template with variables
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

// NewTemplate creates a new prompt template
func NewTemplate(name, content string) (*Template, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Template{
		Name:     name,
		Content:  content,
		template: tmpl,
	}, nil
}

// Render renders the template with given variables
func (t *Template) Render(vars map[string]interface{}) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Manager holds the system prompt templates configured per speaker.
// All operations are thread-safe using RWMutex protection
type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewManager creates a new prompt manager
func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
	}
}

// Register adds a template to the manager
func (m *Manager) Register(tmpl *Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tmpl.Name] = tmpl
	return nil
}

// Get retrieves a template by name
func (m *Manager) Get(name string) (*Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tmpl, ok := m.templates[name]
	return tmpl, ok
}

// SystemFor renders the system prompt for the given speaker, falling back to
// DefaultSystem when the speaker has no registered template.
func (m *Manager) SystemFor(speaker, topic string) string {
	tmpl, ok := m.Get(speaker)
	if !ok {
		return DefaultSystem
	}
	rendered, err := tmpl.Render(map[string]interface{}{
		"Speaker": speaker,
		"Topic":   topic,
	})
	if err != nil {
		return DefaultSystem
	}
	return rendered
}
