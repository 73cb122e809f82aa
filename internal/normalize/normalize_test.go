package normalize

import (
	"errors"
	"studykit/internal/contract"
	"studykit/internal/utils"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryPlaceholders(t *testing.T) {
	tests := []struct {
		name      string
		language  utils.Language
		summary   string
		keyPoints []string
	}{
		{
			name:      "English",
			language:  utils.English,
			summary:   "Summary generation failed. Please try again with different content.",
			keyPoints: []string{"No key points identified."},
		},
		{
			name:      "Arabic",
			language:  utils.Arabic,
			summary:   "فشل إنشاء الملخص. يرجى المحاولة مرة أخرى بمحتوى مختلف.",
			keyPoints: []string{"لم يتم تحديد نقاط رئيسية."},
		},
		{
			name:      "Other languages read English",
			language:  utils.French,
			summary:   "Summary generation failed. Please try again with different content.",
			keyPoints: []string{"No key points identified."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Summary(contract.Summary{}, tt.language)

			assert.Equal(t, tt.summary, resp.Summary.Summary)
			assert.Equal(t, tt.keyPoints, resp.KeyPoints)
			assert.Equal(t, string(tt.language), resp.Language)
			assert.NotNil(t, resp.MainTopics)
			assert.NotNil(t, resp.ImportantQuotes)
			assert.NotNil(t, resp.KeyTerms)
		})
	}
}

func TestSummaryKeepsExtractedFields(t *testing.T) {
	in := contract.Summary{Summary: "Short.", KeyPoints: []string{"One"}, ToneAnalysis: "Calm"}

	resp := Summary(in, utils.English)

	assert.Equal(t, "Short.", resp.Summary.Summary)
	assert.Equal(t, []string{"One"}, resp.KeyPoints)
	assert.Equal(t, "Calm", resp.ToneAnalysis)
}

func TestFlashcardsEmptyIsValid(t *testing.T) {
	resp := Flashcards(nil)
	require.NotNil(t, resp.Flashcards)
	assert.Empty(t, resp.Flashcards)
}

func TestQuizzesEmpty(t *testing.T) {
	_, payload, ok := Quizzes(nil, utils.Arabic)
	require.False(t, ok)
	require.NotNil(t, payload)
	assert.Equal(t, "فشل في إنشاء الاختبارات", payload.Error)
	assert.Equal(t, "arabic", payload.Language)

	quizzes := []contract.Quiz{{Question: "q", Options: map[string]string{"A": "a"}, CorrectAnswer: "A"}}
	resp, payload, ok := Quizzes(quizzes, utils.English)
	assert.True(t, ok)
	assert.Nil(t, payload)
	assert.Len(t, resp.Quizzes, 1)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Unsupported file format: .xyz", Message(MsgUnsupportedFormat, utils.English, "xyz"))
	assert.Equal(t, "النص مطلوب", Message(MsgTextRequired, utils.Arabic))
	assert.Equal(t, "Text is required", Message(MsgTextRequired, utils.German))
	assert.Equal(t, "missing_key", Message(MessageKey("missing_key"), utils.English))
}

func TestErrorDetails(t *testing.T) {
	p := Error(MsgDiagramFailed, utils.English, errors.New("upstream timeout"))
	assert.Equal(t, "Error generating diagram", p.Error)
	assert.Equal(t, "upstream timeout", p.Details)

	se := SummaryError(utils.English, errors.New("boom"))
	assert.Equal(t, "Failed to generate summary: boom", se.Error)
	assert.Equal(t, "", se.Summary)
	assert.Equal(t, []string{}, se.KeyPoints)
}
