// Package normalize turns extracted records into response payloads, filling
// localized placeholders where extraction came back empty.
package normalize

import (
	"studykit/internal/contract"
	"studykit/internal/utils"
)

// Summary fills the summary and key points with placeholders when missing
// and replaces nil collections with empty ones.
func Summary(s contract.Summary, l utils.Language) contract.SummaryResponse {
	if s.Summary == "" {
		s.Summary = Message(MsgSummaryPlaceholder, l)
	}
	if len(s.KeyPoints) == 0 {
		s.KeyPoints = []string{Message(MsgNoKeyPoints, l)}
	}
	if s.MainTopics == nil {
		s.MainTopics = []string{}
	}
	if s.ImportantQuotes == nil {
		s.ImportantQuotes = []string{}
	}
	if s.KeyTerms == nil {
		s.KeyTerms = map[string]string{}
	}

	return contract.SummaryResponse{Summary: s, Language: string(l)}
}

// Flashcards never returns a nil slice; an empty list is a valid answer.
func Flashcards(cards []contract.Flashcard) contract.FlashcardsResponse {
	if cards == nil {
		cards = []contract.Flashcard{}
	}
	return contract.FlashcardsResponse{Flashcards: cards}
}

// Quizzes reports ok=false when nothing usable was extracted, together with
// the localized error payload to send instead.
func Quizzes(quizzes []contract.Quiz, l utils.Language) (contract.QuizzesResponse, *contract.ErrorPayload, bool) {
	if len(quizzes) == 0 {
		p := Error(MsgQuizzesFailed, l, nil)
		return contract.QuizzesResponse{}, &p, false
	}
	return contract.QuizzesResponse{Quizzes: quizzes}, nil, true
}

func Diagram(code string) contract.DiagramResponse {
	return contract.DiagramResponse{DiagramCode: code}
}

// Error builds a localized error payload. The cause, if any, becomes the
// details field.
func Error(key MessageKey, l utils.Language, cause error, args ...any) contract.ErrorPayload {
	p := contract.ErrorPayload{
		Error:    Message(key, l, args...),
		Language: string(l),
	}
	if cause != nil {
		p.Details = cause.Error()
	}
	return p
}

// SummaryError keeps the summary response shape for failures.
func SummaryError(l utils.Language, cause error) contract.SummaryErrorResponse {
	msg := Message(MsgSummaryFailed, l)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return contract.SummaryErrorResponse{
		Error:     msg,
		Summary:   "",
		KeyPoints: []string{},
		Language:  string(l),
	}
}
