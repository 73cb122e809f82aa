package extract

import (
	"fmt"
	"strings"
	"studykit/internal/contract"
	"studykit/internal/schema"
	"studykit/internal/utils"

	"github.com/dlclark/regexp2"
)

// agentMarkers end a record early when the trace continues after it.
const agentMarkers = `\n[ \t]*(?:Thought|Action|Action Input|Final Answer):`

func flashcardPattern(s schema.OutputSchema) *regexp2.Regexp {
	q := labelPattern([]string{s.Label(schema.FieldQuestion)})
	a := labelPattern([]string{s.Label(schema.FieldAnswer)})

	pattern := fmt.Sprintf(
		`\b%[1]s[ \t]*:[ \t]*(.*?)\r?\n[ \t]*%[2]s[ \t]*:[ \t]*(.*?)(?=\s*\b%[1]s[ \t]*:|%[3]s|$)`,
		q, a, agentMarkers,
	)
	return compile(pattern, regexp2.Singleline)
}

func flashcardsIn(text string, s schema.OutputSchema) []contract.Flashcard {
	var cards []contract.Flashcard
	for _, row := range findAll(flashcardPattern(s), text) {
		q := strings.TrimSpace(row[1])
		a := strings.TrimSpace(row[2])
		if q == "" || a == "" {
			continue
		}
		cards = append(cards, contract.Flashcard{Question: q, Answer: a})
	}
	return cards
}

// Flashcards collects question/answer pairs in the order they appear.
// Pairs are read from observation segments, then from the whole output.
func Flashcards(raw string, l utils.Language) []contract.Flashcard {
	for _, cl := range candidates(l) {
		s := schema.For(schema.Flashcards, cl)
		for _, texts := range scopes(raw) {
			var cards []contract.Flashcard
			for _, text := range texts {
				cards = append(cards, flashcardsIn(text, s)...)
			}
			if len(cards) > 0 {
				return cards
			}
		}
	}
	return []contract.Flashcard{}
}
