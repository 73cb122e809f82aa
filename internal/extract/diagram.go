package extract

import (
	"fmt"
	"strings"
	"studykit/internal/prompt"
	"studykit/internal/schema"
	"studykit/internal/utils"

	"github.com/dlclark/regexp2"
)

const DefaultBaseURL = "https://example.com/knowledge"

type DiagramOptions struct {
	IncludeColors bool
	IncludeClicks bool
	BaseURL       string
}

var (
	fencePattern       = compile("```(?:mermaid)?[ \\t]*(.*?)```", regexp2.Singleline)
	declarationPattern = compile(`^[ \t]*(?:graph|flowchart)\b`, regexp2.Multiline)
	nodePattern        = compile(`([A-Za-z0-9_]+)(?:\[|\(|\{)([^\]})]+)(?:\]|\)|\})`, regexp2.None)
	edgePattern        = compile(`--+>|-\.+->|==+>|---`, regexp2.None)

	// edge text, either -->|text| or -- text -->
	edgeLabelPattern = compile(`\|[^|\n]*\||--[ \t][^\-|\n]*?[ \t](--+>)`, regexp2.None)

	// other Mermaid diagram kinds are returned without graph post-processing
	otherDiagramPatterns = []*regexp2.Regexp{
		compile(`(sequenceDiagram.*?)(?=\n[ \t]*\n|$)`, regexp2.Singleline),
		compile(`(classDiagram.*?)(?=\n[ \t]*\n|$)`, regexp2.Singleline),
		compile(`(stateDiagram(?:-v2)?.*?)(?=\n[ \t]*\n|$)`, regexp2.Singleline),
		compile(`(gantt.*?)(?=\n[ \t]*\n|$)`, regexp2.Singleline),
		compile(`(pie\b.*?)(?=\n[ \t]*\n|$)`, regexp2.Singleline),
		compile(`(erDiagram.*?)(?=\n[ \t]*\n|$)`, regexp2.Singleline),
	}
	otherDiagramKeywords = []string{"sequenceDiagram", "classDiagram", "stateDiagram", "gantt", "pie", "erDiagram"}
)

// Diagram isolates a Mermaid body from a completion and post-processes it.
// The first observation segment wins over the rest of the trace.
func Diagram(raw string, l utils.Language, opts DiagramOptions) (string, bool) {
	source := raw
	if segments := ObservationSegments(raw); len(segments) > 0 {
		source = segments[0]
	}

	body := isolateDiagram(source)
	if body == "" && source != raw {
		body = isolateDiagram(raw)
	}
	if body == "" {
		return "", false
	}

	code := ProcessDiagram(body, l, opts)
	if code == "" {
		return "", false
	}
	return code, true
}

func isolateDiagram(text string) string {
	if row, ok := findFirst(fencePattern, text); ok {
		if body := strings.TrimSpace(row[1]); body != "" {
			return body
		}
	}

	if m, err := declarationPattern.FindStringMatch(text); err == nil && m != nil {
		return strings.TrimSpace(text[runeOffset(text, m.Index):])
	}

	for _, re := range otherDiagramPatterns {
		if row, ok := findFirst(re, text); ok {
			return strings.TrimSpace(row[1])
		}
	}

	body := strings.TrimSpace(utils.StripCodeFences(text))
	if !looksLikeGraph(body) {
		return ""
	}
	return body
}

func looksLikeGraph(body string) bool {
	if ok, _ := nodePattern.MatchString(body); ok {
		return true
	}
	ok, _ := edgePattern.MatchString(body)
	return ok
}

func isDeclaration(line string) bool {
	t := strings.TrimSpace(line)
	return t == "graph" || t == "flowchart" ||
		strings.HasPrefix(t, "graph ") || strings.HasPrefix(t, "flowchart ")
}

func isOtherDiagram(body string) bool {
	for _, kw := range otherDiagramKeywords {
		if strings.HasPrefix(body, kw) {
			return true
		}
	}
	return false
}

func hasRTLMarker(body string) bool {
	return strings.Contains(body, "direction:RTL") || strings.Contains(body, "direction: RTL")
}

func paletteClassDefs(p prompt.Palette) []string {
	return []string{
		fmt.Sprintf("classDef feature fill:%s,stroke:#69c,stroke-width:1px", p.Feature),
		fmt.Sprintf("classDef benefit fill:%s,stroke:#6a6,stroke-width:1px", p.Benefit),
		fmt.Sprintf("classDef technology fill:%s,stroke:#6c9,stroke-width:1px", p.Technology),
	}
}

// ProcessDiagram normalizes a flowchart body. The declaration line comes
// first, then every distinct classDef, then the graph, then one click line
// per node id when clicks are enabled. Applying it twice changes nothing.
func ProcessDiagram(body string, l utils.Language, opts DiagramOptions) string {
	body = strings.TrimSpace(utils.StripCodeFences(body))
	if body == "" {
		return ""
	}
	if isOtherDiagram(body) {
		return body
	}

	lines := strings.Split(body, "\n")

	// the declaration may follow directives or classDefs hoisted above it
	declIdx := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if isDeclaration(t) {
			declIdx = i
			break
		}
		if t == "" || strings.HasPrefix(t, "%%") || strings.HasPrefix(t, "classDef ") {
			continue
		}
		break
	}

	header := "graph LR"
	var preamble []string
	scan := lines
	if declIdx >= 0 {
		header = strings.TrimSpace(lines[declIdx])
		scan = nil
		for _, line := range lines[:declIdx] {
			if t := strings.TrimSpace(line); strings.HasPrefix(t, "%%") {
				preamble = append(preamble, t)
				continue
			}
			scan = append(scan, line)
		}
		scan = append(scan, lines[declIdx+1:]...)
	}

	var classDefs, keptClicks, graph []string
	seenClassDef := make(map[string]bool)
	hasStyle := false

	for _, line := range scan {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "classDef "):
			if !seenClassDef[t] {
				seenClassDef[t] = true
				classDefs = append(classDefs, t)
			}
		case strings.HasPrefix(t, "click "):
			if !opts.IncludeClicks {
				keptClicks = append(keptClicks, t)
			}
		default:
			if strings.HasPrefix(t, "style ") {
				hasStyle = true
			}
			graph = append(graph, strings.TrimRight(line, " \t\r"))
		}
	}
	graph = trimBlankLines(graph)

	if opts.IncludeColors && len(classDefs) == 0 && !hasStyle {
		classDefs = paletteClassDefs(prompt.DefaultPalette)
	}

	marker := schema.For(schema.Diagram, l).RTLMarker
	if marker != "" && !hasRTLMarker(body) {
		header += " " + marker
	}

	out := append([]string{}, preamble...)
	out = append(out, header)
	out = append(out, classDefs...)
	out = append(out, graph...)

	clicks := keptClicks
	if opts.IncludeClicks {
		clicks = clickLines(graph, opts.BaseURL)
	}
	if len(clicks) > 0 {
		out = append(out, "")
		out = append(out, clicks...)
	}

	return strings.Join(out, "\n")
}

// clickLines emits one hyperlink per distinct node id, in order of first
// appearance, pointing at the slug of the node's first label.
func clickLines(graph []string, baseURL string) []string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	var clicks []string
	seen := make(map[string]bool)

	for _, line := range graph {
		for _, row := range findAll(nodePattern, stripEdgeLabels(line)) {
			id, label := row[1], row[2]
			if seen[id] {
				continue
			}
			seen[id] = true

			slug := utils.Slugify(label)
			if slug == "" {
				slug = strings.ToLower(id)
			}
			clicks = append(clicks, fmt.Sprintf(`click %s "%s/%s" _blank`, id, baseURL, slug))
		}
	}

	return clicks
}

func stripEdgeLabels(line string) string {
	out, err := edgeLabelPattern.Replace(line, " $1 ", -1, -1)
	if err != nil {
		return line
	}
	return out
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
