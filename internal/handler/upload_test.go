package handler_test

import (
	"errors"
	"net/http"
	"strings"
	"studykit/internal/contract"
	"studykit/internal/testutils"
	"studykit/internal/youtube"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadFile(t *testing.T, e *echo.Echo, filename string, content []byte, expectedStatus int) *contract.UploadResponse {
	t.Helper()

	body, contentType := testutils.MultipartBody(t, nil, filename, content)
	rec := testutils.PerformRequestWithHeaders(t, e, http.MethodPost, "/agent/upload/", body,
		map[string]string{echo.HeaderContentType: contentType}, expectedStatus)

	if expectedStatus != http.StatusOK {
		return nil
	}
	resp := testutils.ParseResponse[contract.UploadResponse](t, rec)
	return &resp
}

func TestUploadTextFile(t *testing.T) {
	e, deps := testutils.SetupHandlerDependencies(t)

	resp := uploadFile(t, e, "notes.txt", []byte("  Photosynthesis turns light into energy.  \n"), http.StatusOK)

	assert.Equal(t, "Photosynthesis turns light into energy.", resp.ExtractedText)
	assert.Equal(t, "file", resp.Source)
	require.NotNil(t, resp.FileInfo)
	assert.NotEmpty(t, resp.FileInfo.ID)
	assert.True(t, strings.HasSuffix(resp.FileInfo.Filename, "-notes.txt"))
	assert.Equal(t, "https://example.com/"+resp.FileInfo.Filename, resp.FileInfo.URL)
	assert.Equal(t, 1, deps.Storage.Count())

	upload, err := deps.DB.GetUpload(t.Context(), resp.FileInfo.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", upload.Filename)
	assert.Equal(t, "file", upload.Source)
}

func TestUploadImageUsesOCR(t *testing.T) {
	e, deps := testutils.SetupHandlerDependencies(t)
	deps.OCR.Text = "نص من صورة"

	resp := uploadFile(t, e, "scan.PNG", []byte("\x89PNG\r\n\x1a\n"), http.StatusOK)
	assert.Equal(t, "نص من صورة", resp.ExtractedText)
}

func TestUploadStorageFailureStillExtracts(t *testing.T) {
	e, deps := testutils.SetupHandlerDependencies(t)
	deps.Storage.UploadError = errors.New("bucket unavailable")

	resp := uploadFile(t, e, "notes.txt", []byte("Cells divide."), http.StatusOK)
	assert.Equal(t, "Cells divide.", resp.ExtractedText)
	assert.Nil(t, resp.FileInfo)
}

func TestUploadWithoutStorage(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t, testutils.Options{WithoutStorage: true})

	resp := uploadFile(t, e, "notes.txt", []byte("Cells divide."), http.StatusOK)
	assert.Nil(t, resp.FileInfo)
}

func TestUploadFileErrors(t *testing.T) {
	e, deps := testutils.SetupHandlerDependencies(t)

	t.Run("unsupported format", func(t *testing.T) {
		body, contentType := testutils.MultipartBody(t, nil, "slides.key", []byte("data"))
		rec := testutils.PerformRequestWithHeaders(t, e, http.MethodPost, "/agent/upload/", body,
			map[string]string{echo.HeaderContentType: contentType}, http.StatusBadRequest)

		resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
		assert.Equal(t, "Unsupported file format: .key", resp.Error)
		assert.Contains(t, resp.SupportedFormats, "pdf")
		assert.Contains(t, resp.SupportedFormats, "png")
	})

	t.Run("empty text", func(t *testing.T) {
		body, contentType := testutils.MultipartBody(t, nil, "blank.txt", []byte("   \n "))
		rec := testutils.PerformRequestWithHeaders(t, e, http.MethodPost, "/agent/upload/", body,
			map[string]string{echo.HeaderContentType: contentType}, http.StatusInternalServerError)

		resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
		assert.Equal(t, "Text extraction failed. File might be empty or unreadable.", resp.Error)
	})

	t.Run("corrupt docx", func(t *testing.T) {
		body, contentType := testutils.MultipartBody(t, nil, "broken.docx", []byte("not a zip"))
		rec := testutils.PerformRequestWithHeaders(t, e, http.MethodPost, "/agent/upload/", body,
			map[string]string{echo.HeaderContentType: contentType}, http.StatusInternalServerError)

		resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
		assert.True(t, strings.HasPrefix(resp.Error, "Text extraction failed: "))
	})

	t.Run("OCR failure", func(t *testing.T) {
		deps.OCR.Err = errors.New("engine crashed")
		defer func() { deps.OCR.Err = nil }()

		body, contentType := testutils.MultipartBody(t, nil, "scan.jpg", []byte{0xff, 0xd8, 0xff})
		rec := testutils.PerformRequestWithHeaders(t, e, http.MethodPost, "/agent/upload/", body,
			map[string]string{echo.HeaderContentType: contentType}, http.StatusInternalServerError)

		resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
		assert.Contains(t, resp.Error, "OCR processing failed")
	})
}

func TestUploadSourceSelection(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)

	t.Run("both sources", func(t *testing.T) {
		body, contentType := testutils.MultipartBody(t, map[string]string{"youtube_url": testutils.TestYouTubeURL}, "notes.txt", []byte("text"))
		rec := testutils.PerformRequestWithHeaders(t, e, http.MethodPost, "/agent/upload/", body,
			map[string]string{echo.HeaderContentType: contentType}, http.StatusBadRequest)

		resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
		assert.Equal(t, "Please provide either a YouTube URL or a file, not both.", resp.Error)
	})

	t.Run("no source", func(t *testing.T) {
		rec := testutils.PerformRequest(t, e, http.MethodPost, "/agent/upload/", `{}`, "", http.StatusBadRequest)
		resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
		assert.Equal(t, "No file or YouTube URL provided", resp.Error)
	})

	t.Run("invalid url", func(t *testing.T) {
		rec := testutils.PerformRequestWithHeaders(t, e, http.MethodPost, "/agent/upload/",
			strings.NewReader(`{"url": "https://example.com/watch"}`),
			map[string]string{"Accept-Language": "ar"}, http.StatusBadRequest)
		resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
		assert.Equal(t, "رابط يوتيوب غير صالح", resp.Error)
	})
}

func TestUploadYouTubeTranscript(t *testing.T) {
	e, deps := testutils.SetupHandlerDependencies(t)
	deps.Transcripts.Transcript = youtube.Transcript{
		VideoID:  "dQw4w9WgXcQ",
		Track:    youtube.Track{LanguageCode: "en"},
		Segments: []string{"Never gonna", "give you up"},
	}

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/agent/upload/", `{"youtube_url": "`+testutils.TestYouTubeURL+`"}`, "", http.StatusOK)

	resp := testutils.ParseResponse[contract.UploadResponse](t, rec)
	assert.Equal(t, "Never gonna give you up", resp.ExtractedText)
	assert.Equal(t, "youtube", resp.Source)
	assert.Equal(t, "en", resp.Language)
	assert.Nil(t, resp.FileInfo)
	assert.Equal(t, []string{"dQw4w9WgXcQ"}, deps.Transcripts.Requested)

	uploads, err := deps.DB.ListUploads(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "youtube", uploads[0].Source)
}

func TestUploadYouTubeErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		message        string
		suggestion     bool
	}{
		{
			name:           "transcripts disabled",
			err:            youtube.ErrTranscriptsDisabled,
			expectedStatus: http.StatusBadRequest,
			message:        "Transcripts are disabled for this YouTube video",
		},
		{
			name: "no matching language",
			err: &youtube.NoTranscriptError{
				VideoID:   "dQw4w9WgXcQ",
				Available: []youtube.Track{{LanguageCode: "ja"}, {LanguageCode: "ko", Generated: true}},
			},
			expectedStatus: http.StatusBadRequest,
			message:        "YouTube transcript extraction failed. Available languages: ja, ko (auto-generated)",
			suggestion:     true,
		},
		{
			name:           "upstream failure",
			err:            errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
			message:        "Text extraction failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, deps := testutils.SetupHandlerDependencies(t)
			deps.Transcripts.Err = tt.err

			rec := testutils.PerformRequest(t, e, http.MethodPost, "/agent/upload/", `{"url": "https://youtu.be/dQw4w9WgXcQ"}`, "", tt.expectedStatus)

			resp := testutils.ParseResponse[contract.ErrorPayload](t, rec)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, tt.suggestion, resp.Suggestion != "")
		})
	}
}
