package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"studykit/internal/schema"
	"studykit/internal/utils"
	"text/template"
	"unicode/utf8"
)

//go:embed templates
var templatesFS embed.FS

// Palette holds the fill colors offered to diagrams.
type Palette struct {
	Feature    string
	Benefit    string
	Technology string
}

var DefaultPalette = Palette{
	Feature:    "#4CAF50",
	Benefit:    "#FF9800",
	Technology: "#2196F3",
}

// Data is everything a template can reference.
type Data struct {
	Text         string
	Schema       schema.OutputSchema
	LanguageName string

	// summary
	Detailed  bool
	MinPoints int
	MaxPoints int

	// diagram
	IncludeColors bool
	IncludeClicks bool
	BaseURL       string
	Palette       Palette

	// chat
	Context []string
	Query   string

	// agent
	ToolName        string
	ToolDescription string
	History         string
	Scratchpad      string
}

type key struct {
	task     schema.Task
	language utils.Language
}

// Template is the instruction text for one (task, language) pair.
type Template struct {
	Task     schema.Task
	Language utils.Language
	tmpl     *template.Template
}

// Render fills the template. Schema, palette and language name default from the template itself.
func (t *Template) Render(data Data) (string, error) {
	if data.Schema.Task == "" {
		data.Schema = schema.For(t.Task, t.Language)
	}
	if data.Palette == (Palette{}) {
		data.Palette = DefaultPalette
	}
	if data.LanguageName == "" {
		data.LanguageName = utils.GetLanguageName(t.Language)
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s/%s template: %w", t.Task, t.Language, err)
	}
	return buf.String(), nil
}

type Selector struct {
	templates map[key]*template.Template
}

// NewSelector parses every embedded template.
func NewSelector() (*Selector, error) {
	s := &Selector{templates: make(map[key]*template.Template)}

	for _, l := range utils.BilingualLanguages {
		for _, task := range schema.Tasks {
			path := fmt.Sprintf("templates/%s/%s.tmpl", l, task)
			tmpl, err := template.New(string(task)).Option("missingkey=error").ParseFS(templatesFS, path)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
			}
			// ParseFS names the template after the file
			s.templates[key{task: task, language: l}] = tmpl.Lookup(string(task) + ".tmpl")
		}
	}

	return s, nil
}

// Select returns the template for a task in a language. Languages without
// dedicated templates use the English one, rendered with their own name.
func (s *Selector) Select(task schema.Task, l utils.Language) (*Template, error) {
	tmpl, ok := s.templates[key{task: task, language: schema.FormatLanguage(l)}]
	if !ok || tmpl == nil {
		return nil, fmt.Errorf("no template for task %q", task)
	}
	return &Template{Task: task, Language: l, tmpl: tmpl}, nil
}

// KeyPointBounds scales the requested number of summary key points with the input length.
func KeyPointBounds(text string) (int, int) {
	minPoints, maxPoints := 3, 7

	n := utf8.RuneCountInString(text)
	if n > 3000 {
		maxPoints = 10
	} else if n < 500 {
		maxPoints = 5
	}

	return minPoints, maxPoints
}
