package extract

import (
	"strings"
	"studykit/internal/utils"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLines(code, prefix string) int {
	n := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			n++
		}
	}
	return n
}

func TestProcessDiagramClickLines(t *testing.T) {
	body := "graph TD\n    A[\"Label One\"] --> B[\"Label Two\"]\n    A --> C(Third)"
	opts := DiagramOptions{IncludeClicks: true, BaseURL: "https://kb.example.com/"}

	code := ProcessDiagram(body, utils.English, opts)

	assert.Contains(t, code, `click A "https://kb.example.com/label-one" _blank`)
	assert.Contains(t, code, `click B "https://kb.example.com/label-two" _blank`)
	assert.Contains(t, code, `click C "https://kb.example.com/third" _blank`)
	assert.Equal(t, 1, countLines(code, "click A "))
	assert.Equal(t, 3, countLines(code, "click "))
	assert.True(t, strings.HasPrefix(code, "graph TD\n"))
}

func TestProcessDiagramIgnoresEdgeText(t *testing.T) {
	body := "graph TD\n    A[Start] -->|call fn(x)| C[End]\n    C -- run g{y} --> D(Done)"
	opts := DiagramOptions{IncludeClicks: true}

	code := ProcessDiagram(body, utils.English, opts)

	assert.Contains(t, code, `click A "https://example.com/knowledge/start" _blank`)
	assert.Contains(t, code, `click C "https://example.com/knowledge/end" _blank`)
	assert.Contains(t, code, `click D "https://example.com/knowledge/done" _blank`)
	assert.Equal(t, 3, countLines(code, "click "))
	assert.Contains(t, code, "A[Start] -->|call fn(x)| C[End]")
}

func TestProcessDiagramReplacesStaleClicks(t *testing.T) {
	body := "graph LR\nA[Intro] --> B[Deep Dive]\nclick A \"https://doi.org/10.1/x\" _blank\nclick B callback"

	code := ProcessDiagram(body, utils.English, DiagramOptions{IncludeClicks: true})

	assert.NotContains(t, code, "doi.org")
	assert.NotContains(t, code, "callback")
	assert.Contains(t, code, `click A "`+DefaultBaseURL+`/intro" _blank`)
	assert.Contains(t, code, `click B "`+DefaultBaseURL+`/deep-dive" _blank`)
}

func TestProcessDiagramKeepsClicksWhenDisabled(t *testing.T) {
	body := "graph LR\nA[Intro] --> B[End]\nclick A \"https://example.org/a\" _blank"

	code := ProcessDiagram(body, utils.English, DiagramOptions{})

	assert.Contains(t, code, `click A "https://example.org/a" _blank`)
	assert.Equal(t, 1, countLines(code, "click "))
}

func TestProcessDiagramHeader(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		language utils.Language
		opts     DiagramOptions
		expected string
	}{
		{
			name:     "Missing declaration defaults to left to right",
			body:     "A[x] --> B[y]",
			language: utils.English,
			expected: "graph LR\nA[x] --> B[y]",
		},
		{
			name:     "Class definitions follow the declaration once",
			body:     "graph LR\nA[x]:::feature --> B[y]\nclassDef feature fill:#4CAF50\nclassDef feature fill:#4CAF50",
			language: utils.English,
			expected: "graph LR\nclassDef feature fill:#4CAF50\nA[x]:::feature --> B[y]",
		},
		{
			name:     "Class definition above the declaration",
			body:     "%% generated\nclassDef a fill:#fff\ngraph TD\nA[x]",
			language: utils.English,
			expected: "%% generated\ngraph TD\nclassDef a fill:#fff\nA[x]",
		},
		{
			name:     "Fenced body",
			body:     "```mermaid\ngraph TB\nA[x] --> B[y]\n```",
			language: utils.English,
			expected: "graph TB\nA[x] --> B[y]",
		},
		{
			name:     "Arabic gets the right to left marker",
			body:     "graph LR\nA[مقدمة] --> B[خاتمة]",
			language: utils.Arabic,
			expected: "graph LR direction:RTL\nA[مقدمة] --> B[خاتمة]",
		},
		{
			name:     "Arabic marker is not duplicated",
			body:     "graph LR direction:RTL\nA[مقدمة] --> B[خاتمة]",
			language: utils.Arabic,
			expected: "graph LR direction:RTL\nA[مقدمة] --> B[خاتمة]",
		},
		{
			name:     "Other diagram kinds are untouched",
			body:     "sequenceDiagram\nAlice->>Bob: Hi",
			language: utils.Arabic,
			opts:     DiagramOptions{IncludeClicks: true, IncludeColors: true},
			expected: "sequenceDiagram\nAlice->>Bob: Hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProcessDiagram(tt.body, tt.language, tt.opts))
		})
	}
}

func TestProcessDiagramPalette(t *testing.T) {
	code := ProcessDiagram("graph LR\nA[x] --> B[y]", utils.English, DiagramOptions{IncludeColors: true})

	lines := strings.Split(code, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "graph LR", lines[0])
	assert.Contains(t, lines[1], "classDef feature fill:#4CAF50")
	assert.Contains(t, lines[2], "classDef benefit fill:#FF9800")
	assert.Contains(t, lines[3], "classDef technology fill:#2196F3")

	styled := ProcessDiagram("graph LR\nA[x]\nstyle A fill:#000", utils.English, DiagramOptions{IncludeColors: true})
	assert.NotContains(t, styled, "classDef")
}

func TestProcessDiagramIdempotent(t *testing.T) {
	bodies := []struct {
		body     string
		language utils.Language
		opts     DiagramOptions
	}{
		{"graph TD\nA[\"Label One\"] --> B[Two]\nclassDef x fill:#fff", utils.English, DiagramOptions{IncludeClicks: true}},
		{"%% note\nA[x] --> B[y]", utils.English, DiagramOptions{IncludeColors: true, IncludeClicks: true}},
		{"graph LR\nA[مقدمة] --> B[خاتمة]\nclick A old", utils.Arabic, DiagramOptions{IncludeClicks: true, BaseURL: "https://kb.example.com"}},
		{"graph LR\nA[x]\nclick A \"https://example.org\" _blank", utils.English, DiagramOptions{}},
	}

	for _, b := range bodies {
		once := ProcessDiagram(b.body, b.language, b.opts)
		twice := ProcessDiagram(once, b.language, b.opts)
		assert.Equal(t, once, twice)
	}
}

func TestDiagram(t *testing.T) {
	t.Run("Fenced diagram inside observation", func(t *testing.T) {
		raw := "Thought: draw it\nAction: Diagram Generator\nAction Input: water cycle\n" +
			"Observation: ```mermaid\ngraph TD\nA[Rain] --> B[River]\n```\nThought: done\nFinal Answer: ok"

		code, ok := Diagram(raw, utils.English, DiagramOptions{})
		require.True(t, ok)
		assert.Equal(t, "graph TD\nA[Rain] --> B[River]", code)
	})

	t.Run("Declaration in prose", func(t *testing.T) {
		raw := "Here is your diagram:\nflowchart LR\nA[Start] --> B[Stop]"

		code, ok := Diagram(raw, utils.English, DiagramOptions{})
		require.True(t, ok)
		assert.Equal(t, "flowchart LR\nA[Start] --> B[Stop]", code)
	})

	t.Run("Bare edges get a declaration", func(t *testing.T) {
		code, ok := Diagram("A[One] --> B[Two]", utils.English, DiagramOptions{})
		require.True(t, ok)
		assert.Equal(t, "graph LR\nA[One] --> B[Two]", code)
	})

	t.Run("Arabic labels produce Arabic slugs", func(t *testing.T) {
		code, ok := Diagram("graph LR\nA[مقدمة عامة] --> B[خاتمة]", utils.Arabic, DiagramOptions{IncludeClicks: true})
		require.True(t, ok)
		assert.Contains(t, code, `click A "`+DefaultBaseURL+`/مقدمة-عامة" _blank`)
	})

	t.Run("No diagram", func(t *testing.T) {
		code, ok := Diagram("Sorry, I cannot help with that request.", utils.English, DiagramOptions{})
		assert.False(t, ok)
		assert.Empty(t, code)
	})
}
