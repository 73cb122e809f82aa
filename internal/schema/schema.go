// Package schema describes the line-anchored output formats requested from
// the model. Prompt templates render their labels from these schemas and the
// extractors build their patterns from the same values.
package schema

import (
	"studykit/internal/utils"
)

type Task string

const (
	Flashcards Task = "flashcards"
	Quiz       Task = "quiz"
	Diagram    Task = "diagram"
	Summary    Task = "summary"
	Chat       Task = "chat"
	// Agent is the wrapper template of the tool-using loop.
	Agent Task = "agent"
)

var Tasks = []Task{Flashcards, Quiz, Diagram, Summary, Chat, Agent}

// Field names shared by prompts and extractors.
const (
	FieldQuestion          = "question"
	FieldAnswer            = "answer"
	FieldCorrectAnswer     = "correct_answer"
	FieldSummary           = "summary"
	FieldKeyPoint          = "key_point"
	FieldMainTopics        = "main_topics"
	FieldToneAnalysis      = "tone_analysis"
	FieldSentimentAnalysis = "sentiment_analysis"
	FieldImportantQuotes   = "important_quotes"
	FieldConclusions       = "conclusions"
	FieldTargetAudience    = "target_audience"
	FieldKeyTerms          = "key_terms"
)

// Field is one anchored label in a completion.
type Field struct {
	Name    string
	Label   string
	Aliases []string
}

// Labels returns the primary label followed by its aliases.
func (f Field) Labels() []string {
	return append([]string{f.Label}, f.Aliases...)
}

type OutputSchema struct {
	Task     Task
	Language utils.Language
	// Fields are listed in the order the model is asked to emit them.
	Fields []Field
	// OptionLabels holds the four quiz option letters.
	OptionLabels []string
	// RTLMarker is appended to the diagram declaration line.
	RTLMarker string
}

// Field looks a field up by name.
func (s OutputSchema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Label returns the primary label of a field, or an empty string.
func (s OutputSchema) Label(name string) string {
	f, _ := s.Field(name)
	return f.Label
}

// Option returns the i-th quiz option label.
func (s OutputSchema) Option(i int) string {
	if i < 0 || i >= len(s.OptionLabels) {
		return ""
	}
	return s.OptionLabels[i]
}

var englishFields = map[Task][]Field{
	Flashcards: {
		{Name: FieldQuestion, Label: "Q"},
		{Name: FieldAnswer, Label: "A"},
	},
	Quiz: {
		{Name: FieldQuestion, Label: "Q"},
		{Name: FieldCorrectAnswer, Label: "Correct Answer"},
	},
	Summary: {
		{Name: FieldSummary, Label: "Summary"},
		{Name: FieldKeyPoint, Label: "Key Point"},
		{Name: FieldMainTopics, Label: "Main Topics"},
		{Name: FieldToneAnalysis, Label: "Tone Analysis"},
		{Name: FieldSentimentAnalysis, Label: "Sentiment Analysis"},
		{Name: FieldImportantQuotes, Label: "Important Quotes"},
		{Name: FieldConclusions, Label: "Conclusions & Insights"},
		{Name: FieldTargetAudience, Label: "Target Audience"},
		{Name: FieldKeyTerms, Label: "Key Terms"},
	},
}

var arabicFields = map[Task][]Field{
	Flashcards: {
		{Name: FieldQuestion, Label: "س"},
		{Name: FieldAnswer, Label: "ج"},
	},
	Quiz: {
		{Name: FieldQuestion, Label: "س"},
		{Name: FieldCorrectAnswer, Label: "الإجابة الصحيحة", Aliases: []string{"الجواب الصحيح"}},
	},
	Summary: {
		{Name: FieldSummary, Label: "ملخص"},
		{Name: FieldKeyPoint, Label: "نقطة رئيسية"},
		{Name: FieldMainTopics, Label: "المواضيع الرئيسية"},
		{Name: FieldToneAnalysis, Label: "تحليل النبرة"},
		{Name: FieldSentimentAnalysis, Label: "تحليل المشاعر"},
		{Name: FieldImportantQuotes, Label: "اقتباسات مهمة"},
		{Name: FieldConclusions, Label: "استنتاجات ورؤى"},
		{Name: FieldTargetAudience, Label: "الجمهور المستهدف"},
		{Name: FieldKeyTerms, Label: "مصطلحات رئيسية"},
	},
}

var (
	englishOptions = []string{"A", "B", "C", "D"}
	arabicOptions  = []string{"أ", "ب", "ج", "د"}
)

const rtlMarker = "direction:RTL"

// FormatLanguage maps a detected language onto the output format used for
// it. Only Arabic has its own labels; every other language uses English ones.
func FormatLanguage(l utils.Language) utils.Language {
	if l == utils.Arabic {
		return utils.Arabic
	}
	return utils.English
}

// For returns the output schema of a (task, language) pair.
func For(task Task, l utils.Language) OutputSchema {
	l = FormatLanguage(l)

	s := OutputSchema{Task: task, Language: l}
	if task == Diagram && utils.IsRTL(l) {
		s.RTLMarker = rtlMarker
	}
	if l == utils.Arabic {
		s.Fields = arabicFields[task]
		if task == Quiz {
			s.OptionLabels = arabicOptions
		}
		return s
	}

	s.Fields = englishFields[task]
	if task == Quiz {
		s.OptionLabels = englishOptions
	}
	return s
}
