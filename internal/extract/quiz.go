package extract

import (
	"fmt"
	"strings"
	"studykit/internal/contract"
	"studykit/internal/schema"
	"studykit/internal/utils"

	"github.com/dlclark/regexp2"
)

// quizPattern builds the six-part quiz record pattern. The strict form wants
// each part on its own line with the option letter followed by a period or a
// space; the permissive form accepts any whitespace between parts and a few
// more option punctuations. No capture may run into another record: strict
// parts stop at any line opening with a label, permissive parts stop at the
// next question or correct answer label.
func quizPattern(s schema.OutputSchema, permissive bool) *regexp2.Regexp {
	if len(s.OptionLabels) == 0 {
		return compile(`(?!)`, regexp2.None)
	}

	field, _ := s.Field(schema.FieldCorrectAnswer)
	question := labelPattern([]string{s.Label(schema.FieldQuestion)})
	correct := labelPattern(field.Labels())
	answer := labelPattern(s.OptionLabels)

	sep := `[ \t]*\r?\n[ \t]*`
	marker := `(?:[.)]|[ \t])[ \t]*`
	colon := `[ \t]*:?[ \t]*`
	boundary := fmt.Sprintf(`\r?\n[ \t]*(?:%s[ \t]*:|%s(?:[.)]|[ \t])|%s)`, question, answer, correct)
	if permissive {
		sep = `\s+`
		marker = `(?:[.):\-]|\s)\s*`
		colon = `\s*:?\s*`
		boundary = fmt.Sprintf(`\s+(?:%s\s*:|%s)`, question, correct)
	}
	part := fmt.Sprintf(`((?:(?!%s).)*?)`, boundary)

	var b strings.Builder
	fmt.Fprintf(&b, `\b%s[ \t]*:\s*%s`, question, part)
	for _, opt := range s.OptionLabels {
		fmt.Fprintf(&b, `%s%s%s%s`, sep, regexp2.Escape(opt), marker, part)
	}
	fmt.Fprintf(&b, `%s%s%s\(?(%s)(?![\p{L}\p{N}])`, sep, correct, colon, answer)

	return compile(b.String(), regexp2.Singleline)
}

func quizzesIn(text string, s schema.OutputSchema, permissive bool) []contract.Quiz {
	var quizzes []contract.Quiz

	for _, row := range findAll(quizPattern(s, permissive), text) {
		q := contract.Quiz{
			Question:      strings.TrimSpace(row[1]),
			Options:       make(map[string]string, len(s.OptionLabels)),
			CorrectAnswer: strings.TrimSpace(row[len(s.OptionLabels)+2]),
		}

		complete := q.Question != ""
		for i, opt := range s.OptionLabels {
			text := strings.TrimSpace(row[i+2])
			if text == "" {
				complete = false
			}
			q.Options[opt] = text
		}

		if complete {
			quizzes = append(quizzes, q)
		}
	}

	return quizzes
}

// Quizzes returns multiple-choice records. The strict pattern runs over the
// observation segments and then the whole output; the permissive pattern only
// runs when the strict one found nothing anywhere.
func Quizzes(raw string, l utils.Language) []contract.Quiz {
	for _, cl := range candidates(l) {
		s := schema.For(schema.Quiz, cl)

		for _, permissive := range []bool{false, true} {
			for _, texts := range scopes(raw) {
				var quizzes []contract.Quiz
				for _, text := range texts {
					quizzes = append(quizzes, quizzesIn(text, s, permissive)...)
				}
				if len(quizzes) > 0 {
					return quizzes
				}
			}
		}
	}
	return []contract.Quiz{}
}
