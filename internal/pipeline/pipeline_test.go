package pipeline

import (
	"context"
	"errors"
	"strings"
	"studykit/internal/agent"
	"studykit/internal/ai"
	"studykit/internal/prompt"
	"studykit/internal/utils"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	text string
	err  error
}

// fakeCompleter answers each call with the next step and records what it
// was asked.
type fakeCompleter struct {
	mu      sync.Mutex
	steps   []step
	prompts []string
	options []ai.GenerateOptions
}

func (f *fakeCompleter) Complete(_ context.Context, p string, opts ai.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, p)
	f.options = append(f.options, opts)
	if len(f.steps) == 0 {
		return "", ai.ErrEmptyCompletion
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	return s.text, s.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newTestService(t *testing.T, c ai.Completer, memory agent.Memory) *Service {
	t.Helper()

	selector, err := prompt.NewSelector()
	require.NoError(t, err)

	invoker := agent.NewInvoker(c, selector, agent.Config{}, nil)
	return NewService(invoker, selector, agent.NewSessions(memory), Config{}, nil)
}

const englishText = "Cells are the basic unit of life. They divide, grow and carry genetic material."

func TestFlashcardsAgentTrace(t *testing.T) {
	c := &fakeCompleter{steps: []step{
		{text: "Thought: I should use the generator\nAction: Flashcard Generator\nAction Input: cells"},
		{text: "Q: What is the basic unit of life?\nA: The cell\nQ: What do cells carry?\nA: Genetic material"},
		{text: "Final Answer: Generated two flashcards"},
	}}
	s := newTestService(t, c, nil)

	result, err := s.Flashcards(context.Background(), englishText, "", agent.ModeAgent)
	require.NoError(t, err)
	assert.Equal(t, utils.English, result.Language)
	require.Len(t, result.Flashcards, 2)
	assert.Equal(t, "What is the basic unit of life?", result.Flashcards[0].Question)
	assert.Equal(t, "Genetic material", result.Flashcards[1].Answer)
	assert.Equal(t, 3, c.calls())
}

func TestFlashcardsFallsBackToDirect(t *testing.T) {
	t.Run("Empty trace", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{text: "Final Answer: I cannot help with that"},
			{text: "Q: Fallback?\nA: Direct"},
		}}
		s := newTestService(t, c, nil)

		result, err := s.Flashcards(context.Background(), englishText, "", "")
		require.NoError(t, err)
		require.Len(t, result.Flashcards, 1)
		assert.Equal(t, "Direct", result.Flashcards[0].Answer)
		assert.Equal(t, 2, c.calls())
	})

	t.Run("Agent failure", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{err: errors.New("quota exceeded")},
			{text: "Q: Still works?\nA: Yes"},
		}}
		s := newTestService(t, c, nil)

		result, err := s.Flashcards(context.Background(), englishText, "", agent.ModeAgent)
		require.NoError(t, err)
		require.Len(t, result.Flashcards, 1)
	})

	t.Run("Both fail", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{err: errors.New("quota exceeded")},
			{err: errors.New("quota exceeded")},
		}}
		s := newTestService(t, c, nil)

		_, err := s.Flashcards(context.Background(), englishText, "", agent.ModeAgent)
		assert.Error(t, err)
	})
}

func TestFlashcardsDirectModeSavesSession(t *testing.T) {
	memory := agent.NewInMemory(20)
	c := &fakeCompleter{steps: []step{{text: "no pairs here"}}}
	s := newTestService(t, c, memory)

	result, err := s.Flashcards(context.Background(), englishText, "session-1", agent.ModeDirect)
	require.NoError(t, err)
	assert.NotNil(t, result.Flashcards)
	assert.Empty(t, result.Flashcards)
	assert.Equal(t, 1, c.calls())

	turns, err := memory.Load(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, agent.RoleHuman, turns[0].Role)
	assert.Equal(t, "no pairs here", turns[1].Content)

	require.NoError(t, s.ResetSession(context.Background(), "session-1"))
	turns, err = memory.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestQuizzesArabicDirect(t *testing.T) {
	c := &fakeCompleter{steps: []step{
		{text: "س: ما هي عاصمة مصر؟\nأ. القاهرة\nب. الإسكندرية\nج. أسوان\nد. الأقصر\nالإجابة الصحيحة: أ"},
	}}
	s := newTestService(t, c, nil)

	result, err := s.Quizzes(context.Background(), "القاهرة هي عاصمة مصر وأكبر مدنها من حيث عدد السكان", "", agent.ModeDirect)
	require.NoError(t, err)
	assert.Equal(t, utils.Arabic, result.Language)
	require.Len(t, result.Quizzes, 1)
	assert.Equal(t, "أ", result.Quizzes[0].CorrectAnswer)
	assert.Contains(t, result.Quizzes[0].Options, "د")

	require.Len(t, c.options, 1)
	assert.Equal(t, []string{"Q:", "Question:"}, c.options[0].Stop)
}

func TestQuizzesAgentThenDirect(t *testing.T) {
	record := "Q: What is 2+2?\nA. 3\nB. 4\nC. 5\nD. 6\nCorrect Answer: B"

	t.Run("Agent error", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{err: errors.New("unavailable")},
			{text: record},
		}}
		s := newTestService(t, c, nil)

		result, err := s.Quizzes(context.Background(), englishText, "", "")
		require.NoError(t, err)
		require.Len(t, result.Quizzes, 1)
		assert.Empty(t, c.options[1].Stop)
	})

	t.Run("Nothing anywhere", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{text: "Final Answer: no quiz"},
			{text: "I could not write a quiz."},
		}}
		s := newTestService(t, c, nil)

		result, err := s.Quizzes(context.Background(), englishText, "", "")
		require.NoError(t, err)
		assert.Empty(t, result.Quizzes)
		assert.Equal(t, 2, c.calls())
	})

	t.Run("Direct error", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{text: "Final Answer: no quiz"},
			{err: errors.New("unavailable")},
		}}
		s := newTestService(t, c, nil)

		_, err := s.Quizzes(context.Background(), englishText, "", "")
		assert.Error(t, err)
	})
}

func TestDiagram(t *testing.T) {
	in := DiagramInput{
		Text:          englishText,
		IncludeColors: false,
		IncludeClicks: true,
		BaseURL:       "https://kb.example.com",
	}

	t.Run("Direct output", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{{text: "```mermaid\ngraph TD\nA[Cell] --> B[Nucleus]\n```"}}}
		s := newTestService(t, c, nil)

		result, err := s.Diagram(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result.Code, "graph TD"))
		assert.Contains(t, result.Code, `click A "https://kb.example.com/cell" _blank`)
		assert.Contains(t, result.Code, `click B "https://kb.example.com/nucleus" _blank`)
		assert.Equal(t, 1, c.calls())
		assert.InDelta(t, 0.1, c.options[0].Temperature, 0.001)
	})

	t.Run("Agent after unusable direct output", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{text: "Sorry, I cannot draw that."},
			{text: "Thought: I will draw it\nAction: Mermaid Diagram Generator\nAction Input: cells"},
			{text: "```mermaid\ngraph TD\nA[One] --> B[Two]\n```"},
			{text: "Final Answer: done"},
		}}
		s := newTestService(t, c, nil)

		result, err := s.Diagram(context.Background(), in)
		require.NoError(t, err)
		assert.Contains(t, result.Code, `click A "https://kb.example.com/one" _blank`)
		assert.Equal(t, 4, c.calls())
	})

	t.Run("No diagram", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{text: "Sorry, I cannot draw that."},
			{text: "Final Answer: still nothing"},
		}}
		s := newTestService(t, c, nil)

		_, err := s.Diagram(context.Background(), in)
		assert.ErrorIs(t, err, ErrNoDiagram)
	})
}

func TestSummary(t *testing.T) {
	t.Run("Labeled direct output", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{text: "Summary: Cells are the units of life.\n\nKey Point 1: Cells divide.\nKey Point 2: Cells grow."},
		}}
		s := newTestService(t, c, nil)

		result, err := s.Summary(context.Background(), englishText, true)
		require.NoError(t, err)
		assert.Equal(t, utils.English, result.Language)
		assert.Equal(t, "Cells are the units of life.", result.Summary.Summary)
		assert.Equal(t, []string{"Cells divide.", "Cells grow."}, result.Summary.KeyPoints)
		assert.Equal(t, 1, c.calls())
		assert.Contains(t, c.prompts[0], "3-5")
	})

	t.Run("Fallback reads the direct output", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{text: "Just a paragraph about cells.\n\n- point one\n- point two"},
			{text: "Final Answer: nothing to add"},
		}}
		s := newTestService(t, c, nil)

		result, err := s.Summary(context.Background(), englishText, false)
		require.NoError(t, err)
		assert.Equal(t, "Just a paragraph about cells.", result.Summary.Summary)
		assert.Equal(t, []string{"point one", "point two"}, result.Summary.KeyPoints)
	})

	t.Run("Every call fails", func(t *testing.T) {
		c := &fakeCompleter{steps: []step{
			{err: errors.New("down")},
			{err: errors.New("down")},
		}}
		s := newTestService(t, c, nil)

		_, err := s.Summary(context.Background(), englishText, true)
		assert.Error(t, err)
	})
}
