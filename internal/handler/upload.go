package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"studykit/internal/contract"
	"studykit/internal/db"
	"studykit/internal/docs"
	"studykit/internal/normalize"
	"studykit/internal/utils"
	"studykit/internal/youtube"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UploadAndExtract returns the text of either an uploaded document or a
// YouTube video's transcript, never both.
func (h *Handler) UploadAndExtract(c echo.Context) error {
	l := requestLanguage(c)

	req := new(contract.UploadRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request").WithInternal(err)
	}

	url := req.VideoURL()
	fh, fileErr := c.FormFile("file")
	hasFile := fileErr == nil && fh != nil

	switch {
	case url != "" && hasFile:
		return c.JSON(http.StatusBadRequest, contract.ErrorPayload{Error: normalize.Message(normalize.MsgBothSources, l)})
	case url != "":
		return h.extractTranscript(c, url, l)
	case hasFile:
		return h.extractFile(c, fh, l)
	default:
		return c.JSON(http.StatusBadRequest, contract.ErrorPayload{Error: normalize.Message(normalize.MsgNoSource, l)})
	}
}

func (h *Handler) extractTranscript(c echo.Context, url string, l utils.Language) error {
	ctx := c.Request().Context()

	videoID, err := youtube.VideoID(url)
	if err != nil {
		return c.JSON(http.StatusBadRequest, contract.ErrorPayload{Error: normalize.Message(normalize.MsgInvalidYouTubeURL, l)})
	}

	transcript, err := h.transcripts.Fetch(ctx, videoID, h.youtubeLanguages)
	if err != nil {
		var noTranscript *youtube.NoTranscriptError
		switch {
		case errors.Is(err, youtube.ErrTranscriptsDisabled):
			return c.JSON(http.StatusBadRequest, contract.ErrorPayload{Error: normalize.Message(normalize.MsgTranscriptsDisabled, l)})
		case errors.As(err, &noTranscript):
			return c.JSON(http.StatusBadRequest, contract.ErrorPayload{
				Error:      normalize.Message(normalize.MsgTranscriptFailed, l, noTranscript.Languages()),
				Suggestion: normalize.Message(normalize.MsgTranscriptHint, l),
			})
		default:
			h.logger.Error("transcript fetch failed", slog.String("video_id", videoID), slog.String("error", err.Error()))
			return c.JSON(http.StatusInternalServerError, contract.ErrorPayload{
				Error: fmt.Sprintf("%s: %s", normalize.Message(normalize.MsgExtractionFailed, l), err.Error()),
			})
		}
	}

	text := transcript.Text()

	h.recordUpload(ctx, &db.Upload{
		Filename:   videoID,
		FileURL:    "https://www.youtube.com/watch?v=" + videoID,
		Source:     "youtube",
		TextLength: len([]rune(text)),
	})

	return c.JSON(http.StatusOK, contract.UploadResponse{
		ExtractedText: text,
		Source:        "youtube",
		Language:      transcript.Track.LanguageCode,
	})
}

func (h *Handler) extractFile(c echo.Context, fh *multipart.FileHeader, l utils.Language) error {
	ctx := c.Request().Context()

	ext := docs.Extension(fh.Filename)
	supported := h.loaders.SupportedFormats()
	if !slices.Contains(supported, ext) {
		return c.JSON(http.StatusBadRequest, contract.ErrorPayload{
			Error:            normalize.Message(normalize.MsgUnsupportedFormat, l, ext),
			SupportedFormats: supported,
		})
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open file").WithInternal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read file").WithInternal(err)
	}

	uniqueName := fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(fh.Filename))
	mimeType := mimetype.Detect(data).String()

	var fileInfo *contract.FileInfo
	if h.storageProvider != nil {
		fileURL, err := h.storageProvider.UploadFile(ctx, bytes.NewReader(data), uniqueName, mimeType)
		if err != nil {
			h.logger.Warn("failed to upload file, continuing with extraction",
				slog.String("filename", uniqueName),
				slog.String("error", err.Error()),
			)
		} else {
			fileInfo = &contract.FileInfo{
				Filename: uniqueName,
				URL:      fileURL,
				MimeType: mimeType,
				Size:     int64(len(data)),
			}
		}
	}

	text, err := h.loaders.Extract(ctx, fh.Filename, data)
	if err != nil {
		if errors.Is(err, docs.ErrUnsupportedFormat) {
			return c.JSON(http.StatusBadRequest, contract.ErrorPayload{
				Error:            normalize.Message(normalize.MsgUnsupportedFormat, l, ext),
				SupportedFormats: supported,
			})
		}
		h.logger.Error("text extraction failed", slog.String("filename", fh.Filename), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, contract.ErrorPayload{
			Error: fmt.Sprintf("%s: %s", normalize.Message(normalize.MsgExtractionFailed, l), err.Error()),
		})
	}

	if strings.TrimSpace(text) == "" {
		return c.JSON(http.StatusInternalServerError, contract.ErrorPayload{Error: normalize.Message(normalize.MsgExtractionEmpty, l)})
	}

	if fileInfo != nil {
		upload := &db.Upload{
			Filename:    fh.Filename,
			StoragePath: uniqueName,
			FileURL:     fileInfo.URL,
			MimeType:    mimeType,
			Size:        fileInfo.Size,
			Source:      "file",
			TextLength:  len([]rune(text)),
		}
		h.recordUpload(ctx, upload)
		fileInfo.ID = upload.ID
	}

	return c.JSON(http.StatusOK, contract.UploadResponse{
		ExtractedText: text,
		FileInfo:      fileInfo,
		Source:        "file",
	})
}

func (h *Handler) recordUpload(ctx context.Context, u *db.Upload) {
	if h.db == nil {
		return
	}
	if err := h.db.CreateUpload(ctx, u); err != nil {
		h.logger.Warn("failed to record upload", slog.String("filename", u.Filename), slog.String("error", err.Error()))
	}
}

