package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"studykit/internal/contract"
	"studykit/internal/docs"
	"studykit/internal/normalize"
	"studykit/internal/utils"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/encoding/charmap"
)

func textLanguage(text string) utils.Language {
	if utils.ContainsArabic(text) {
		return utils.Arabic
	}
	return utils.English
}

// ProcessText replaces the chatbot's knowledge base with the posted text or
// the content of an uploaded text file.
func (h *Handler) ProcessText(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(contract.TextRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, contract.ChatResponse{Success: false, Error: "Invalid request"})
	}

	text := req.Text
	msg := normalize.MsgTextProcessed

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open file").WithInternal(err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read file").WithInternal(err)
		}

		text, err = docs.DecodeText(data, charmap.Windows1256)
		if err != nil {
			h.logger.Error("failed to decode text file", slog.String("error", err.Error()))
			return c.JSON(http.StatusInternalServerError, contract.ChatResponse{
				Success: false,
				Error:   normalize.Message(normalize.MsgTextFailed, requestLanguage(c)),
			})
		}
		msg = normalize.MsgFileProcessed
	}

	if strings.TrimSpace(text) == "" {
		return c.JSON(http.StatusBadRequest, contract.ChatResponse{
			Success: false,
			Error:   normalize.Message(normalize.MsgNoTextOrFile, requestLanguage(c)),
		})
	}

	l := textLanguage(text)

	chunks, err := h.chatBot.Ingest(ctx, h.scopedNamespace(c, req.SessionID), text)
	if err != nil {
		h.logger.Error("failed to ingest text", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, contract.ChatResponse{
			Success: false,
			Error:   normalize.Message(normalize.MsgTextFailed, l),
		})
	}

	h.logger.Info("knowledge base updated", slog.Int("chunks", chunks), slog.String("language", string(l)))

	return c.JSON(http.StatusOK, contract.ChatResponse{
		Success: true,
		Message: normalize.Message(msg, l),
	})
}

func (h *Handler) Chat(c echo.Context) error {
	req := new(contract.ChatRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, contract.ChatResponse{Success: false, Error: "Invalid request"})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, contract.ChatResponse{
			Success: false,
			Error:   normalize.Message(normalize.MsgNoMessage, requestLanguage(c)),
		})
	}

	answer, err := h.chatBot.Answer(c.Request().Context(), h.scopedNamespace(c, req.SessionID), req.Message)
	if err != nil {
		h.logger.Error("chat failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, contract.ChatResponse{
			Success: false,
			Error:   normalize.Message(normalize.MsgChatFailed, textLanguage(req.Message)),
		})
	}

	return c.JSON(http.StatusOK, contract.ChatResponse{Success: true, Response: answer})
}

// ResetChat clears the knowledge base and the stored conversation of the
// session given in the session_id query parameter.
func (h *Handler) ResetChat(c echo.Context) error {
	ctx := c.Request().Context()
	l := requestLanguage(c)
	sessionID := c.QueryParam("session_id")

	if err := h.chatBot.Reset(ctx, h.scopedNamespace(c, sessionID)); err != nil {
		h.logger.Error("failed to reset chatbot", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, contract.ChatResponse{Success: false, Error: err.Error()})
	}

	if err := h.pipeline.ResetSession(ctx, h.scopedSession(c, sessionID)); err != nil {
		h.logger.Warn("failed to reset session", slog.String("error", err.Error()))
	}

	return c.JSON(http.StatusOK, contract.ChatResponse{
		Success: true,
		Message: normalize.Message(normalize.MsgChatReset, l),
	})
}
