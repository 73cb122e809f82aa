package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"studykit/internal/agent"
	"studykit/internal/ai"
	"studykit/internal/chat"
	"studykit/internal/config"
	"studykit/internal/db"
	"studykit/internal/docs"
	"studykit/internal/handler"
	"studykit/internal/job"
	"studykit/internal/middleware"
	"studykit/internal/ocr"
	"studykit/internal/pipeline"
	"studykit/internal/prompt"
	"studykit/internal/storage"
	"studykit/internal/vectorstore"
	"studykit/internal/youtube"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func newLogger(cfg config.ServerConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newAIClient(cfg config.AIConfig) (ai.Client, error) {
	switch cfg.Provider {
	case "openai":
		return ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model, cfg.EmbeddingModel)
	case "gemini":
		return ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.Model, cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func newVectorStore(ctx context.Context, cfg *config.Config, storage *db.Storage) (vectorstore.Store, func(), error) {
	if cfg.Chat.VectorStore != "postgres" {
		return vectorstore.NewSQLite(storage), func() {}, nil
	}

	pg, err := vectorstore.NewPostgres(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// newMemory returns redis-backed session memory when configured. The pruner
// is nil for redis, where keys expire on their own.
func newMemory(ctx context.Context, cfg *config.Config, logr *slog.Logger) (agent.Memory, job.Pruner) {
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil && !strings.Contains(cfg.Redis.URL, "://") {
			opts, err = &redis.Options{Addr: cfg.Redis.URL}, nil
		}
		if err == nil {
			client := redis.NewClient(opts)
			if err = client.Ping(ctx).Err(); err == nil {
				logr.Info("using redis session memory", slog.String("addr", opts.Addr))
				return agent.NewRedisMemory(client, cfg.Sessions.IdleTimeout, cfg.Sessions.MaxTurns), nil
			}
			_ = client.Close()
		}
		logr.Warn("redis unavailable, keeping sessions in memory", slog.String("error", err.Error()))
	}

	memory := agent.NewInMemory(cfg.Sessions.MaxTurns)
	return memory, memory
}

func main() {
	configFilePath := "config.yml"
	configFilePathEnv := os.Getenv("CONFIG_FILE_PATH")
	if configFilePathEnv != "" {
		configFilePath = configFilePathEnv
	}

	cfg, err := config.Load(configFilePath)
	if err != nil {
		log.Fatalf("error reading configuration: %v", err)
	}

	logr := newLogger(cfg.Server)
	slog.SetDefault(logr)

	ctx := context.Background()

	dbStorage, err := db.ConnectDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbStorage.Close()

	aiClient, err := newAIClient(cfg.AI)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	selector, err := prompt.NewSelector()
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}

	store, closeStore, err := newVectorStore(ctx, cfg, dbStorage)
	if err != nil {
		log.Fatalf("Failed to open vector store: %v", err)
	}
	defer closeStore()

	memory, pruner := newMemory(ctx, cfg, logr)

	var storageProvider storage.Provider
	if cfg.S3Storage.Enabled() {
		storageProvider, err = storage.NewS3Provider(cfg.S3Storage)
		if err != nil {
			logr.Warn("failed to initialize S3 storage", slog.String("error", err.Error()))
			storageProvider = nil
		}
	}

	engine, err := ocr.NewEngine(ctx, cfg.OCR, logr)
	if err != nil {
		if !errors.Is(err, ocr.ErrNotConfigured) {
			log.Fatalf("Failed to initialize OCR: %v", err)
		}
		logr.Info("OCR disabled, image uploads are not accepted")
		engine = nil
	}
	if closer, ok := engine.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	invoker := agent.NewInvoker(aiClient, selector, agent.Config{
		MaxSteps: cfg.AI.AgentMaxSteps,
		Timeout:  cfg.AI.Timeout,
	}, logr)

	service := pipeline.NewService(invoker, selector, agent.NewSessions(memory), pipeline.Config{
		FlashcardsMode: agent.ParseMode(cfg.AI.FlashcardsMode, agent.ModeAgent),
		DiagramBaseURL: cfg.Diagram.BaseURL,
	}, logr)

	bot := chat.NewBot(aiClient, aiClient, store, selector, chat.Config{
		ChunkSize:    cfg.Chat.ChunkSize,
		ChunkOverlap: cfg.Chat.ChunkOverlap,
		Threshold:    cfg.Chat.Threshold,
		TopK:         cfg.Chat.TopK,
		Model:        cfg.AI.ChatModel,
	}, logr)

	h := handler.New(
		service,
		bot,
		docs.NewRegistry(engine),
		youtube.NewFetcher(youtube.NewKKDaiSource()),
		storageProvider,
		dbStorage,
		cfg.JWTSecret,
		cfg.YouTube.Languages,
		logr,
	)

	e := echo.New()

	middleware.Setup(e, logr, middleware.Options{BodyLimit: cfg.Server.BodyLimit})

	e.Validator = &CustomValidator{validator: validator.New()}

	h.RegisterRoutes(e)

	var sessionPruner *job.SessionPruner
	if pruner != nil {
		sessionPruner = job.NewSessionPruner(pruner, cfg.Sessions.PruneInterval, cfg.Sessions.IdleTimeout, logr)
		go sessionPruner.Start()
	}

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logr.Info("starting server", slog.String("addr", addr), slog.String("ai_provider", cfg.AI.Provider))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-quit
	logr.Info("shutting down server")

	if sessionPruner != nil {
		sessionPruner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", slog.String("error", err.Error()))
	}

	logr.Info("server gracefully stopped")
}
