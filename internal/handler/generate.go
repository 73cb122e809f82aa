package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"studykit/internal/agent"
	"studykit/internal/contract"
	"studykit/internal/normalize"
	"studykit/internal/pipeline"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GenerateFlashcards(c echo.Context) error {
	req := new(contract.GenerateRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request").WithInternal(err)
	}

	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, normalize.Message(normalize.MsgTextRequired, requestLanguage(c)))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	mode := agent.ParseMode(req.Mode, "")
	result, err := h.pipeline.Flashcards(c.Request().Context(), req.Text, h.scopedSession(c, req.SessionID), mode)
	if err != nil {
		h.logger.Error("flashcard generation failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, normalize.Error(normalize.MsgFlashcardsFailed, result.Language, nil))
	}

	return c.JSON(http.StatusOK, normalize.Flashcards(result.Flashcards))
}

func (h *Handler) GenerateQuizzes(c echo.Context) error {
	req := new(contract.GenerateRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request").WithInternal(err)
	}

	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, normalize.Message(normalize.MsgTextRequired, requestLanguage(c)))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	mode := agent.ParseMode(req.Mode, "")
	result, err := h.pipeline.Quizzes(c.Request().Context(), req.Text, h.scopedSession(c, req.SessionID), mode)
	if err != nil {
		h.logger.Error("quiz generation failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, normalize.Error(normalize.MsgQuizzesFailed, result.Language, nil))
	}

	resp, payload, ok := normalize.Quizzes(result.Quizzes, result.Language)
	if !ok {
		return c.JSON(http.StatusInternalServerError, payload)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GenerateDiagram(c echo.Context) error {
	l := requestLanguage(c)

	req := new(contract.DiagramRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request").WithInternal(err)
	}

	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, normalize.Message(normalize.MsgTextRequired, l))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	result, err := h.pipeline.Diagram(c.Request().Context(), pipeline.DiagramInput{
		Text:          req.Text,
		IncludeColors: req.Colors(),
		IncludeClicks: req.Clicks(),
		BaseURL:       req.BaseURL,
		SessionID:     h.scopedSession(c, req.SessionID),
	})
	if err != nil {
		h.logger.Error("diagram generation failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, normalize.Error(normalize.MsgDiagramFailed, result.Language, err))
	}

	return c.JSON(http.StatusOK, normalize.Diagram(result.Code))
}

func (h *Handler) Summarize(c echo.Context) error {
	req := new(contract.SummaryRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request").WithInternal(err)
	}

	if strings.TrimSpace(req.Text) == "" {
		l := requestLanguage(c)
		return c.JSON(http.StatusBadRequest, contract.SummaryErrorResponse{
			Error:     normalize.Message(normalize.MsgTextRequired, l),
			Summary:   "",
			KeyPoints: []string{},
			Language:  string(l),
		})
	}

	result, err := h.pipeline.Summary(c.Request().Context(), req.Text, req.IsDetailed())
	if err != nil {
		h.logger.Error("summary generation failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, normalize.SummaryError(result.Language, err))
	}

	return c.JSON(http.StatusOK, normalize.Summary(result.Summary, result.Language))
}
