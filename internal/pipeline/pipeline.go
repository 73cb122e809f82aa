// Package pipeline runs each study-material task end to end: language
// classification, prompt selection, invocation with the fallback order of
// the task, and extraction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"studykit/internal/agent"
	"studykit/internal/ai"
	"studykit/internal/prompt"
	"studykit/internal/schema"
	"studykit/internal/utils"
)

var ErrNoDiagram = errors.New("no diagram could be extracted")

type Config struct {
	// FlashcardsMode is used when a flashcard request does not pick a mode.
	FlashcardsMode agent.Mode
	DiagramBaseURL string
}

type Service struct {
	invoker  *agent.Invoker
	selector *prompt.Selector
	sessions *agent.Sessions
	detector *utils.Detector
	extended *utils.Detector
	config   Config
	logger   *slog.Logger
}

func NewService(invoker *agent.Invoker, selector *prompt.Selector, sessions *agent.Sessions, config Config, logger *slog.Logger) *Service {
	if config.FlashcardsMode == "" {
		config.FlashcardsMode = agent.ModeAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		invoker:  invoker,
		selector: selector,
		sessions: sessions,
		detector: utils.NewDetector(utils.BilingualLanguages...),
		extended: utils.NewDetector(utils.ExtendedLanguages...),
		config:   config,
		logger:   logger.With("component", "pipeline"),
	}
}

// Language classifies text for the generation tasks.
func (s *Service) Language(text string) utils.Language {
	return s.detector.Classify(text)
}

// SummaryLanguage classifies text against the extended language set.
func (s *Service) SummaryLanguage(text string) utils.Language {
	return s.extended.Classify(text)
}

// task bundles what one generation needs to run directly or as the agent's
// tool.
type task struct {
	kind     schema.Task
	language utils.Language
	data     prompt.Data
	options  ai.GenerateOptions
	toolName string
	toolDesc string
	// agentInput replaces the text as the agent's human message.
	agentInput string
}

func (s *Service) render(t task, text string) (string, error) {
	tmpl, err := s.selector.Select(t.kind, t.language)
	if err != nil {
		return "", err
	}

	data := t.data
	data.Text = text
	return tmpl.Render(data)
}

func (s *Service) request(t task) (agent.Request, error) {
	p, err := s.render(t, t.data.Text)
	if err != nil {
		return agent.Request{}, err
	}

	input := t.agentInput
	if input == "" {
		input = t.data.Text
	}

	return agent.Request{
		Prompt:   p,
		Input:    input,
		Language: t.language,
		Options:  t.options,
		Tool: agent.Tool{
			Name:        t.toolName,
			Description: t.toolDesc,
			Run: func(ctx context.Context, in string) (string, error) {
				p, err := s.render(t, in)
				if err != nil {
					return "", err
				}
				return s.invoker.Complete(ctx, p, t.options)
			},
		},
	}, nil
}

func (s *Service) invoke(ctx context.Context, t task, mode agent.Mode, conv *agent.Conversation) (agent.RawOutput, error) {
	req, err := s.request(t)
	if err != nil {
		return "", err
	}

	raw, err := s.invoker.Invoke(ctx, req, mode, conv)
	if err != nil {
		s.logger.Error("invocation failed",
			slog.String("task", string(t.kind)),
			slog.String("mode", string(mode)),
			slog.String("error", err.Error()),
		)
		return raw, err
	}

	s.logger.Debug("invocation finished",
		slog.String("task", string(t.kind)),
		slog.String("mode", string(mode)),
		slog.Int("output_length", len(raw)),
	)
	return raw, nil
}

func (s *Service) open(ctx context.Context, sessionID string) *agent.Conversation {
	conv, err := s.sessions.Open(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load session", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		return agent.NewConversation(sessionID, nil)
	}
	return conv
}

func (s *Service) save(ctx context.Context, conv *agent.Conversation) {
	if err := s.sessions.Save(ctx, conv); err != nil {
		s.logger.Warn("failed to save session", slog.String("session_id", conv.SessionID), slog.String("error", err.Error()))
	}
}

// ResetSession forgets the stored turns of a session.
func (s *Service) ResetSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("error resetting session %s: %w", sessionID, err)
	}
	return nil
}
