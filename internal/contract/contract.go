package contract

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are carried by the optional bearer token guarding /agent.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorPayload is a localized failure with the language it was written in.
type ErrorPayload struct {
	Error            string   `json:"error"`
	Language         string   `json:"language,omitempty"`
	Details          string   `json:"details,omitempty"`
	Suggestion       string   `json:"suggestion,omitempty"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
}

type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Quiz struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
}

// Consistent reports whether the correct answer names one of the options.
func (q Quiz) Consistent() bool {
	_, ok := q.Options[q.CorrectAnswer]
	return ok
}

type Summary struct {
	Summary           string            `json:"summary"`
	KeyPoints         []string          `json:"key_points"`
	MainTopics        []string          `json:"main_topics"`
	ToneAnalysis      string            `json:"tone_analysis"`
	SentimentAnalysis string            `json:"sentiment_analysis"`
	ImportantQuotes   []string          `json:"important_quotes"`
	Conclusions       string            `json:"conclusions"`
	TargetAudience    string            `json:"target_audience"`
	KeyTerms          map[string]string `json:"key_terms"`
}

// IsEmpty reports whether neither the summary nor any key point was found.
func (s Summary) IsEmpty() bool {
	return s.Summary == "" && len(s.KeyPoints) == 0
}

type FlashcardsResponse struct {
	Flashcards []Flashcard `json:"flashcards"`
}

type QuizzesResponse struct {
	Quizzes []Quiz `json:"quizzes"`
}

type DiagramResponse struct {
	DiagramCode string `json:"diagram_code"`
}

type SummaryResponse struct {
	Summary
	Language string `json:"language"`
}

// SummaryErrorResponse keeps the summary shape on failure so clients can
// render the same view.
type SummaryErrorResponse struct {
	Error     string   `json:"error"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Language  string   `json:"language"`
}

// ChatResponse is shared by the chatbot endpoints.
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

type FileInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type UploadResponse struct {
	ExtractedText string    `json:"extracted_text"`
	FileInfo      *FileInfo `json:"file_info,omitempty"`
	Source        string    `json:"source"`
	Language      string    `json:"language,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
