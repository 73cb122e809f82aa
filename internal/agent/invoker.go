// Package agent invokes the language model either directly or through a
// bounded tool-using loop, and keeps per-request conversation state.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"studykit/internal/ai"
	"studykit/internal/prompt"
	"studykit/internal/schema"
	"studykit/internal/utils"
	"time"

	"github.com/dlclark/regexp2"
)

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeAgent  Mode = "agent"
)

// ParseMode maps a request value onto a mode, keeping def for empty or
// unknown values.
func ParseMode(value string, def Mode) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeDirect:
		return ModeDirect
	case ModeAgent:
		return ModeAgent
	default:
		return def
	}
}

// RawOutput is the unparsed completion, possibly an agent trace.
type RawOutput string

func (r RawOutput) String() string {
	return string(r)
}

// Tool is the single action the agent can take.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

// Request describes one invocation.
type Request struct {
	// Prompt is sent as is in direct mode.
	Prompt string
	// Input is the human message of the agent loop.
	Input    string
	Language utils.Language
	Options  ai.GenerateOptions
	Tool     Tool
}

type Config struct {
	MaxSteps int
	Timeout  time.Duration
}

type Invoker struct {
	completer ai.Completer
	selector  *prompt.Selector
	config    Config
	logger    *slog.Logger
}

const (
	defaultMaxSteps = 3
	defaultTimeout  = 60 * time.Second
)

func NewInvoker(completer ai.Completer, selector *prompt.Selector, config Config, logger *slog.Logger) *Invoker {
	if config.MaxSteps <= 0 {
		config.MaxSteps = defaultMaxSteps
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Invoker{
		completer: completer,
		selector:  selector,
		config:    config,
		logger:    logger.With("component", "agent"),
	}
}

// Complete runs one bounded completion call.
func (inv *Invoker) Complete(ctx context.Context, p string, opts ai.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, inv.config.Timeout)
	defer cancel()

	return inv.completer.Complete(ctx, p, opts)
}

// Invoke produces the raw output for req. The conversation receives the
// human input and the final text of the exchange.
func (inv *Invoker) Invoke(ctx context.Context, req Request, mode Mode, conv *Conversation) (RawOutput, error) {
	var (
		out string
		err error
	)

	if mode == ModeAgent {
		out, err = inv.runAgent(ctx, req, conv)
	} else {
		out, err = inv.Complete(ctx, req.Prompt, req.Options)
	}
	if err != nil {
		return RawOutput(out), fmt.Errorf("%s invocation failed: %w", mode, err)
	}

	input := req.Input
	if input == "" {
		input = req.Prompt
	}
	conv.Add(RoleHuman, input)
	conv.Add(RoleAI, finalText(out))

	return RawOutput(out), nil
}

var (
	actionPattern      = regexp2.MustCompile(`Action[ \t]*:[ \t]*(.*?)[ \t]*\r?\n[ \t]*Action[ \t]*Input[ \t]*:[ \t]*(.*)`, regexp2.Singleline)
	finalAnswerPattern = regexp2.MustCompile(`Final[ \t]*Answer[ \t]*:[ \t]*(.*)`, regexp2.Singleline)
)

func firstGroups(re *regexp2.Regexp, text string) []string {
	m, err := re.FindStringMatch(text)
	if err != nil || m == nil {
		return nil
	}

	groups := m.Groups()
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.String()
	}
	return out
}

// parseStep reads one model turn: either an action with its input or a final
// answer.
func parseStep(text string) (action, input string, final string, isFinal bool) {
	if g := firstGroups(actionPattern, text); g != nil {
		input = strings.TrimSpace(g[2])
		input = strings.Trim(input, "\"`")
		return strings.TrimSpace(g[1]), strings.TrimSpace(input), "", false
	}
	if g := firstGroups(finalAnswerPattern, text); g != nil {
		return "", "", strings.TrimSpace(g[1]), true
	}
	return "", "", "", false
}

// finalText returns the final answer of a trace, or the whole text when the
// output is not a trace.
func finalText(out string) string {
	if g := firstGroups(finalAnswerPattern, out); g != nil {
		if s := strings.TrimSpace(g[1]); s != "" {
			return s
		}
	}
	return strings.TrimSpace(out)
}

// runAgent drives the Thought/Action/Observation loop. Every model turn and
// observation is kept in the returned trace.
func (inv *Invoker) runAgent(ctx context.Context, req Request, conv *Conversation) (string, error) {
	if req.Tool.Run == nil {
		return "", fmt.Errorf("agent mode requires a tool")
	}

	tmpl, err := inv.selector.Select(schema.Agent, req.Language)
	if err != nil {
		return "", err
	}

	input := req.Input
	if input == "" {
		input = req.Prompt
	}

	history := conv.History()
	opts := req.Options
	opts.Stop = append(append([]string{}, opts.Stop...), "\nObservation:", "Observation:")

	var trace, scratchpad strings.Builder

	for step := 0; step < inv.config.MaxSteps; step++ {
		p, err := tmpl.Render(prompt.Data{
			Text:            input,
			ToolName:        req.Tool.Name,
			ToolDescription: req.Tool.Description,
			History:         history,
			Scratchpad:      scratchpad.String(),
		})
		if err != nil {
			return trace.String(), err
		}

		out, err := inv.Complete(ctx, p, opts)
		if err != nil {
			return trace.String(), err
		}

		turn := strings.TrimSpace(out)
		if step > 0 && !strings.HasPrefix(turn, "Thought:") {
			// the scratchpad ended with "Thought:" and the model continued it
			turn = "Thought: " + turn
		}
		trace.WriteString(turn)
		trace.WriteByte('\n')

		action, actionInput, _, isFinal := parseStep(turn)
		if isFinal {
			return trace.String(), nil
		}
		if action == "" {
			inv.logger.Warn("agent turn had no action", "step", step)
			return trace.String(), nil
		}
		if action != req.Tool.Name {
			inv.logger.Warn("agent asked for an unknown tool", "action", action, "tool", req.Tool.Name)
		}
		if actionInput == "" {
			actionInput = input
		}

		observation, err := req.Tool.Run(ctx, actionInput)
		if err != nil {
			return trace.String(), fmt.Errorf("tool %s failed: %w", req.Tool.Name, err)
		}

		obs := "Observation: " + strings.TrimSpace(observation)
		trace.WriteString(obs)
		trace.WriteByte('\n')

		scratchpad.WriteString(turn)
		scratchpad.WriteByte('\n')
		scratchpad.WriteString(obs)
		scratchpad.WriteString("\nThought:")
	}

	inv.logger.Warn("agent stopped after max steps", "steps", inv.config.MaxSteps)
	return trace.String(), nil
}
