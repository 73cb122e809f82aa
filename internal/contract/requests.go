package contract

import (
	"fmt"
	"strings"
)

// GenerateRequest is the body of the flashcard and quiz endpoints.
type GenerateRequest struct {
	Text      string `json:"text" validate:"required"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	// Mode forces "direct" or "agent"; empty uses the endpoint default.
	Mode string `json:"mode,omitempty" validate:"omitempty,oneof=direct agent"`
}

type DiagramRequest struct {
	Text          string `json:"text"`
	IncludeColors *bool  `json:"include_colors,omitempty"`
	IncludeClicks *bool  `json:"include_clicks,omitempty"`
	BaseURL       string `json:"base_url,omitempty" validate:"omitempty,url"`
	SessionID     string `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

// Colors defaults to true.
func (r DiagramRequest) Colors() bool {
	return r.IncludeColors == nil || *r.IncludeColors
}

// Clicks defaults to true.
func (r DiagramRequest) Clicks() bool {
	return r.IncludeClicks == nil || *r.IncludeClicks
}

type SummaryRequest struct {
	Text     string `json:"text"`
	Detailed *bool  `json:"detailed,omitempty"`
}

// IsDetailed defaults to true.
func (r SummaryRequest) IsDetailed() bool {
	return r.Detailed == nil || *r.Detailed
}

// TextRequest feeds the chatbot's knowledge base. A multipart file may be
// sent instead of the text field.
type TextRequest struct {
	Text      string `json:"text" form:"text"`
	SessionID string `json:"session_id,omitempty" form:"session_id"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// UploadRequest carries the URL form of the extraction endpoint. The file
// form arrives as multipart and is read separately.
type UploadRequest struct {
	YouTubeURL string `json:"youtube_url" form:"youtube_url"`
	URL        string `json:"url" form:"url"`
}

// VideoURL returns whichever URL field was set.
func (r UploadRequest) VideoURL() string {
	if r.YouTubeURL != "" {
		return strings.TrimSpace(r.YouTubeURL)
	}
	return strings.TrimSpace(r.URL)
}
