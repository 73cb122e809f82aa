package handler

import (
	"log/slog"
	"net/http"
	"studykit/internal/chat"
	"studykit/internal/contract"
	"studykit/internal/db"
	"studykit/internal/docs"
	"studykit/internal/middleware"
	"studykit/internal/pipeline"
	"studykit/internal/storage"
	"studykit/internal/utils"
	"studykit/internal/youtube"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	pipeline         *pipeline.Service
	chatBot          *chat.Bot
	loaders          *docs.Registry
	transcripts      youtube.TranscriptFetcher
	storageProvider  storage.Provider
	db               *db.Storage
	jwtSecret        string
	youtubeLanguages []string
	logger           *slog.Logger
}

func New(
	pipeline *pipeline.Service,
	chatBot *chat.Bot,
	loaders *docs.Registry,
	transcripts youtube.TranscriptFetcher,
	storageProvider storage.Provider,
	db *db.Storage,
	jwtSecret string,
	youtubeLanguages []string,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		pipeline:         pipeline,
		chatBot:          chatBot,
		loaders:          loaders,
		transcripts:      transcripts,
		storageProvider:  storageProvider,
		db:               db,
		jwtSecret:        jwtSecret,
		youtubeLanguages: youtubeLanguages,
		logger:           logger.With("component", "handler"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/agent/health/", h.Health)

	g := e.Group("/agent")

	if h.jwtSecret != "" {
		g.Use(echojwt.WithConfig(middleware.GetUserAuthConfig(h.jwtSecret)))
	}

	h.AddGenerationRoutes(g)
	h.AddChatRoutes(g)
	h.AddUploadRoutes(g)
}

func (h *Handler) AddGenerationRoutes(g *echo.Group) {
	g.POST("/generate/", h.GenerateFlashcards)
	g.POST("/quizzes/", h.GenerateQuizzes)
	g.POST("/diagram/", h.GenerateDiagram)
	g.POST("/summarize/", h.Summarize)
}

func (h *Handler) AddChatRoutes(g *echo.Group) {
	g.POST("/text/", h.ProcessText)
	g.POST("/chat/", h.Chat)
	g.POST("/reset/", h.ResetChat)
}

func (h *Handler) AddUploadRoutes(g *echo.Group) {
	g.POST("/upload/", h.UploadAndExtract)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, contract.HealthResponse{Status: "ok"})
}

// GetUserIDFromToken returns the uid claim when the bearer guard is on.
func GetUserIDFromToken(c echo.Context) (string, error) {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok || user == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	claims, ok := user.Claims.(*contract.JWTClaims)
	if !ok || claims == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return claims.UID, nil
}

// requestLanguage reads Accept-Language for messages sent before any text
// has been classified.
func requestLanguage(c echo.Context) utils.Language {
	return utils.PreferredLanguage(c.Request().Header.Get("Accept-Language"))
}

// scopedSession prefixes a conversation id with the caller's uid so
// authenticated users never share memory. An empty id stays empty and
// nothing is remembered.
func (h *Handler) scopedSession(c echo.Context, id string) string {
	if id == "" {
		return ""
	}
	return h.withUser(c, id)
}

// scopedNamespace is scopedSession for chat knowledge, where an empty id
// means the default namespace.
func (h *Handler) scopedNamespace(c echo.Context, id string) string {
	if id == "" {
		id = chat.DefaultNamespace
	}
	return h.withUser(c, id)
}

func (h *Handler) withUser(c echo.Context, id string) string {
	if h.jwtSecret == "" {
		return id
	}
	uid, err := GetUserIDFromToken(c)
	if err != nil || uid == "" {
		return id
	}
	return uid + ":" + id
}
