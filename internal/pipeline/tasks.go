package pipeline

import (
	"context"
	"studykit/internal/agent"
	"studykit/internal/ai"
	"studykit/internal/contract"
	"studykit/internal/extract"
	"studykit/internal/prompt"
	"studykit/internal/schema"
	"studykit/internal/utils"
)

const (
	arabicAnswerInstruction  = "هام جداً: يجب أن تكون جميع الإجابات باللغة العربية فقط.\n\nالنص المدخل:\n"
	arabicDiagramInstruction = "مهم جداً: يجب أن تكون جميع النصوص في المخطط باللغة العربية.\n\nقم بإنشاء مخطط Mermaid من النص التالي:\n"
)

func creative() ai.GenerateOptions {
	return ai.GenerateOptions{Temperature: 0.7, TopP: 0.95}
}

type FlashcardsResult struct {
	Flashcards []contract.Flashcard
	Language   utils.Language
}

// Flashcards runs the requested mode and, when the agent trace yields no
// pairs, one direct generation.
func (s *Service) Flashcards(ctx context.Context, text, sessionID string, mode agent.Mode) (FlashcardsResult, error) {
	l := s.Language(text)
	if mode == "" {
		mode = s.config.FlashcardsMode
	}

	t := task{
		kind:     schema.Flashcards,
		language: l,
		data:     prompt.Data{Text: text},
		options:  creative(),
		toolName: "Flashcard Generator",
		toolDesc: "Generates flashcards from input text in the appropriate language (Arabic or English).",
	}

	conv := s.open(ctx, sessionID)
	defer s.save(ctx, conv)

	raw, err := s.invoke(ctx, t, mode, conv)
	if err == nil {
		if cards := extract.Flashcards(raw.String(), l); len(cards) > 0 || mode == agent.ModeDirect {
			return FlashcardsResult{Flashcards: cards, Language: l}, nil
		}
	} else if mode == agent.ModeDirect {
		return FlashcardsResult{Language: l}, err
	}

	raw, err = s.invoke(ctx, t, agent.ModeDirect, conv)
	if err != nil {
		return FlashcardsResult{Language: l}, err
	}
	return FlashcardsResult{Flashcards: extract.Flashcards(raw.String(), l), Language: l}, nil
}

type QuizzesResult struct {
	Quizzes  []contract.Quiz
	Language utils.Language
}

// Quizzes runs the agent first and a direct generation when the trace holds
// no complete record.
func (s *Service) Quizzes(ctx context.Context, text, sessionID string, mode agent.Mode) (QuizzesResult, error) {
	l := s.Language(text)
	if mode == "" {
		mode = agent.ModeAgent
	}

	opts := creative()
	var input string
	if l == utils.Arabic {
		opts.Stop = []string{"Q:", "Question:"}
		input = arabicAnswerInstruction + text
	}

	t := task{
		kind:       schema.Quiz,
		language:   l,
		data:       prompt.Data{Text: text},
		options:    opts,
		toolName:   "Quiz Generator",
		toolDesc:   "Generates multiple-choice quiz questions from input text in the same language as the input (Arabic or English). If the input is in Arabic, all output must be in Arabic.",
		agentInput: input,
	}

	conv := s.open(ctx, sessionID)
	defer s.save(ctx, conv)

	var quizzes []contract.Quiz
	raw, agentErr := s.invoke(ctx, t, mode, conv)
	if agentErr == nil {
		quizzes = s.consistent(extract.Quizzes(raw.String(), l))
	}

	if len(quizzes) == 0 && mode != agent.ModeDirect {
		raw, err := s.invoke(ctx, t, agent.ModeDirect, conv)
		if err != nil {
			return QuizzesResult{Language: l}, err
		}
		quizzes = s.consistent(extract.Quizzes(raw.String(), l))
	} else if agentErr != nil {
		return QuizzesResult{Language: l}, agentErr
	}

	return QuizzesResult{Quizzes: quizzes, Language: l}, nil
}

func (s *Service) consistent(quizzes []contract.Quiz) []contract.Quiz {
	out := quizzes[:0]
	for _, q := range quizzes {
		if !q.Consistent() {
			s.logger.Warn("dropping quiz with unknown correct answer", "correct_answer", q.CorrectAnswer)
			continue
		}
		out = append(out, q)
	}
	return out
}

type DiagramInput struct {
	Text          string
	IncludeColors bool
	IncludeClicks bool
	BaseURL       string
	SessionID     string
}

type DiagramResult struct {
	Code     string
	Language utils.Language
}

// Diagram generates directly and only asks the agent when no diagram could
// be isolated from the direct output.
func (s *Service) Diagram(ctx context.Context, in DiagramInput) (DiagramResult, error) {
	l := s.Language(in.Text)

	baseURL := in.BaseURL
	if baseURL == "" {
		baseURL = s.config.DiagramBaseURL
	}
	if baseURL == "" {
		baseURL = extract.DefaultBaseURL
	}

	var input string
	if l == utils.Arabic {
		input = arabicDiagramInstruction + in.Text
	}

	t := task{
		kind:     schema.Diagram,
		language: l,
		data: prompt.Data{
			Text:          in.Text,
			IncludeColors: in.IncludeColors,
			IncludeClicks: in.IncludeClicks,
			BaseURL:       baseURL,
		},
		options:    ai.GenerateOptions{Temperature: 0.1, TopP: 0.95},
		toolName:   "Mermaid Diagram Generator",
		toolDesc:   "Generates Mermaid diagrams from text descriptions in the appropriate language (Arabic or English).",
		agentInput: input,
	}
	opts := extract.DiagramOptions{
		IncludeColors: in.IncludeColors,
		IncludeClicks: in.IncludeClicks,
		BaseURL:       baseURL,
	}

	conv := s.open(ctx, in.SessionID)
	defer s.save(ctx, conv)

	raw, directErr := s.invoke(ctx, t, agent.ModeDirect, conv)
	if directErr == nil {
		if code, ok := extract.Diagram(raw.String(), l, opts); ok {
			return DiagramResult{Code: code, Language: l}, nil
		}
	}

	raw, err := s.invoke(ctx, t, agent.ModeAgent, conv)
	if err != nil {
		return DiagramResult{Language: l}, err
	}
	if code, ok := extract.Diagram(raw.String(), l, opts); ok {
		return DiagramResult{Code: code, Language: l}, nil
	}

	if directErr != nil {
		return DiagramResult{Language: l}, directErr
	}
	return DiagramResult{Language: l}, ErrNoDiagram
}

type SummaryResult struct {
	Summary  contract.Summary
	Language utils.Language
}

// Summary generates directly, then through the agent, then reads whatever
// paragraph and bullets the direct output has.
func (s *Service) Summary(ctx context.Context, text string, detailed bool) (SummaryResult, error) {
	l := s.SummaryLanguage(text)
	minPoints, maxPoints := prompt.KeyPointBounds(text)

	t := task{
		kind:     schema.Summary,
		language: l,
		data: prompt.Data{
			Text:      text,
			Detailed:  detailed,
			MinPoints: minPoints,
			MaxPoints: maxPoints,
		},
		options:  creative(),
		toolName: "Enhanced Text Analyzer",
		toolDesc: "Generates a comprehensive analysis from input text in the appropriate language. Extracts summary, key points, topics, tone, sentiment, important quotes, insights, target audience, and key terms.",
	}

	conv := agent.NewConversation("", nil)

	direct, directErr := s.invoke(ctx, t, agent.ModeDirect, conv)
	if directErr == nil {
		if result := extract.Summary(direct.String(), l); hasContent(result) {
			return SummaryResult{Summary: result, Language: l}, nil
		}
	}

	raw, agentErr := s.invoke(ctx, t, agent.ModeAgent, conv)
	if agentErr == nil {
		if result := extract.Summary(raw.String(), l); hasContent(result) {
			return SummaryResult{Summary: result, Language: l}, nil
		}
	}

	if directErr != nil {
		if agentErr != nil {
			return SummaryResult{Language: l}, directErr
		}
		return SummaryResult{Summary: extract.SummaryFallback(raw.String(), l), Language: l}, nil
	}
	return SummaryResult{Summary: extract.SummaryFallback(direct.String(), l), Language: l}, nil
}

func hasContent(s contract.Summary) bool {
	return s.Summary != "" || len(s.KeyPoints) > 0
}
