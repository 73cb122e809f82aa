package extract

import (
	"fmt"
	"strings"
	"studykit/internal/contract"
	"studykit/internal/schema"
	"studykit/internal/utils"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const colonClass = `[:：]`

var (
	listMarkerPattern = compile(`(?:^|(?<=\s))(?:\d+[.)]|[-•*])\s+`, regexp2.None)
	bulletPattern     = compile(`^[ \t]*[•\-*][ \t]+([^\n]+)`, regexp2.Multiline)
	numberedPattern   = compile(`^[ \t]*\d+[.:)\-][ \t]*([^\n]+)`, regexp2.Multiline)
)

// fieldTerminator matches the start of any labeled field, a blank line or
// the end of the text.
func fieldTerminator(s schema.OutputSchema) string {
	var labels []string
	for _, f := range s.Fields {
		labels = append(labels, f.Labels()...)
	}
	return fmt.Sprintf(`(?=\n[ \t]*\n|\b%s[ \t]*\d*[ \t]*%s|$)`, labelPattern(labels), colonClass)
}

func fieldPattern(s schema.OutputSchema, f schema.Field) *regexp2.Regexp {
	pattern := fmt.Sprintf(`\b%s[ \t]*%s[ \t]*(.*?)%s`, labelPattern(f.Labels()), colonClass, fieldTerminator(s))
	return compile(pattern, regexp2.Singleline)
}

func keyPointPattern(s schema.OutputSchema) *regexp2.Regexp {
	f, _ := s.Field(schema.FieldKeyPoint)
	pattern := fmt.Sprintf(`\b%s[ \t]*\d+[ \t]*%s[ \t]*(.*?)%s`, labelPattern(f.Labels()), colonClass, fieldTerminator(s))
	return compile(pattern, regexp2.Singleline)
}

// Summary reads the nine labeled analysis fields.
func Summary(raw string, l utils.Language) contract.Summary {
	text := strings.ReplaceAll(raw, "**", "")

	var result contract.Summary
	for _, cl := range candidates(l) {
		result = summaryWith(text, schema.For(schema.Summary, cl))
		if !result.IsEmpty() {
			return result
		}
	}
	return result
}

func summaryWith(text string, s schema.OutputSchema) contract.Summary {
	result := contract.Summary{
		KeyPoints:       []string{},
		MainTopics:      []string{},
		ImportantQuotes: []string{},
		KeyTerms:        map[string]string{},
	}

	field := func(name string) string {
		f, ok := s.Field(name)
		if !ok {
			return ""
		}
		if row, ok := findFirst(fieldPattern(s, f), text); ok {
			return strings.TrimSpace(row[1])
		}
		return ""
	}

	result.Summary = field(schema.FieldSummary)

	for _, row := range findAll(keyPointPattern(s), text) {
		if p := strings.TrimSpace(row[1]); p != "" {
			result.KeyPoints = append(result.KeyPoints, p)
		}
	}

	result.MainTopics = splitList(field(schema.FieldMainTopics), true)
	result.ToneAnalysis = field(schema.FieldToneAnalysis)
	result.SentimentAnalysis = field(schema.FieldSentimentAnalysis)
	result.ImportantQuotes = splitList(field(schema.FieldImportantQuotes), false)
	result.Conclusions = field(schema.FieldConclusions)
	result.TargetAudience = field(schema.FieldTargetAudience)
	result.KeyTerms = parseKeyTerms(field(schema.FieldKeyTerms))

	return result
}

// splitList breaks a list field on bullet and number markers. A single
// marker-less line is split on commas when allowed.
func splitList(text string, splitCommas bool) []string {
	items := []string{}
	if strings.TrimSpace(text) == "" {
		return items
	}

	for _, part := range splitBy(listMarkerPattern, text) {
		for _, line := range strings.Split(part, "\n") {
			if item := strings.TrimSpace(line); item != "" {
				items = append(items, item)
			}
		}
	}

	if splitCommas && len(items) == 1 {
		fields := strings.FieldsFunc(items[0], func(r rune) bool { return r == ',' || r == '،' || r == ';' })
		if len(fields) > 1 {
			items = items[:0]
			for _, f := range fields {
				if item := strings.TrimSpace(f); item != "" {
					items = append(items, item)
				}
			}
		}
	}

	return items
}

// parseKeyTerms maps each "term: definition" entry, one per line or bullet,
// splitting on the first colon.
func parseKeyTerms(text string) map[string]string {
	terms := map[string]string{}

	entries := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '•' })
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		entry = strings.TrimLeft(entry, "-* ")
		entry = trimNumbering(entry)

		idx := strings.IndexAny(entry, ":：")
		if idx <= 0 {
			continue
		}

		term := strings.Trim(strings.TrimSpace(entry[:idx]), `"'`)
		_, size := utf8.DecodeRuneInString(entry[idx:])
		definition := strings.TrimSpace(entry[idx+size:])
		if term == "" || definition == "" {
			continue
		}
		terms[term] = definition
	}

	return terms
}

func trimNumbering(entry string) string {
	i := 0
	for i < len(entry) && entry[i] >= '0' && entry[i] <= '9' {
		i++
	}
	if i > 0 && i < len(entry) && (entry[i] == '.' || entry[i] == ')') {
		return strings.TrimSpace(entry[i+1:])
	}
	return entry
}

// SummaryFallback recovers a summary paragraph and key points from output
// that ignored the labeled format: the labeled paragraph or else the first
// paragraph, and bullets or else numbered items.
func SummaryFallback(raw string, l utils.Language) contract.Summary {
	text := strings.ReplaceAll(raw, "**", "")
	s := schema.For(schema.Summary, l)

	result := contract.Summary{
		KeyPoints:       []string{},
		MainTopics:      []string{},
		ImportantQuotes: []string{},
		KeyTerms:        map[string]string{},
	}

	label := labelPattern([]string{s.Label(schema.FieldSummary)})
	summaryPattern := compile(fmt.Sprintf(`%s.*?[:\n](.*?)(?=\n[ \t]*\n|$)`, label), regexp2.Singleline)
	if row, ok := findFirst(summaryPattern, text); ok {
		result.Summary = strings.TrimSpace(row[1])
	}
	if result.Summary == "" {
		for _, p := range strings.Split(strings.TrimSpace(text), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				result.Summary = p
				break
			}
		}
	}

	for _, row := range findAll(bulletPattern, text) {
		if p := strings.TrimSpace(row[1]); p != "" {
			result.KeyPoints = append(result.KeyPoints, p)
		}
	}
	if len(result.KeyPoints) == 0 {
		for _, row := range findAll(numberedPattern, text) {
			if p := strings.TrimSpace(row[1]); p != "" {
				result.KeyPoints = append(result.KeyPoints, p)
			}
		}
	}

	return result
}
