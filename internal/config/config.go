package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"studykit/internal/ocr"
	"studykit/internal/storage"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port" validate:"min=1,max=65535"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=text json"`
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	BodyLimit string `yaml:"body_limit"`
}

type AIConfig struct {
	Provider       string        `yaml:"provider" validate:"oneof=gemini openai"`
	GeminiAPIKey   string        `yaml:"gemini_api_key" validate:"required_if=Provider gemini"`
	OpenAIAPIKey   string        `yaml:"openai_api_key" validate:"required_if=Provider openai"`
	Model          string        `yaml:"model"`
	ChatModel      string        `yaml:"chat_model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Timeout        time.Duration `yaml:"timeout"`
	AgentMaxSteps  int           `yaml:"agent_max_steps" validate:"min=0,max=10"`
	// FlashcardsMode is the mode used when a request does not pick one.
	FlashcardsMode string `yaml:"flashcards_mode" validate:"omitempty,oneof=direct agent"`
}

type DiagramConfig struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

type ChatConfig struct {
	ChunkSize    int     `yaml:"chunk_size" validate:"min=0"`
	ChunkOverlap int     `yaml:"chunk_overlap" validate:"min=0"`
	Threshold    float64 `yaml:"threshold" validate:"min=0,max=1"`
	TopK         int     `yaml:"top_k" validate:"min=0"`
	VectorStore  string  `yaml:"vector_store" validate:"oneof=sqlite postgres"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type YouTubeConfig struct {
	Languages []string `yaml:"languages"`
}

type SessionsConfig struct {
	MaxTurns      int           `yaml:"max_turns" validate:"min=0"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	AI        AIConfig         `yaml:"ai"`
	Diagram   DiagramConfig    `yaml:"diagram"`
	Chat      ChatConfig       `yaml:"chat"`
	DBPath    string           `yaml:"db_path" validate:"required"`
	Postgres  PostgresConfig   `yaml:"postgres"`
	Redis     RedisConfig      `yaml:"redis"`
	S3Storage storage.S3Config `yaml:"s3_storage"`
	OCR       ocr.Config       `yaml:"ocr"`
	YouTube   YouTubeConfig    `yaml:"youtube"`
	JWTSecret string           `yaml:"jwt_secret"`
	Sessions  SessionsConfig   `yaml:"sessions"`
}

func ReadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}

func ValidateConfig(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if cfg.Chat.VectorStore == "postgres" && cfg.Postgres.URL == "" {
		return errors.New("postgres.url is required for the postgres vector store")
	}
	if cfg.Chat.ChunkOverlap >= cfg.Chat.ChunkSize {
		return fmt.Errorf("chat.chunk_overlap (%d) must be smaller than chat.chunk_size (%d)", cfg.Chat.ChunkOverlap, cfg.Chat.ChunkSize)
	}
	return nil
}

// Load reads .env, the yaml file at filePath (a missing file is allowed),
// applies environment overrides and defaults, and validates the result.
func Load(filePath string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := ReadConfig(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &Config{}
	} else if err != nil {
		return nil, err
	}

	ApplyEnv(cfg)
	ApplyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv lets secrets and deployment settings come from the environment.
func ApplyEnv(cfg *Config) {
	setString(&cfg.AI.GeminiAPIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	setString(&cfg.AI.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.AI.Provider, "AI_PROVIDER")
	setString(&cfg.DBPath, "DB_PATH")
	setString(&cfg.Postgres.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL", "REDIS_ADDR")
	setString(&cfg.S3Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.S3Storage.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.S3Storage.Bucket, "S3_BUCKET")
	setString(&cfg.S3Storage.Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3Storage.Region, "S3_REGION")
	setString(&cfg.S3Storage.PublicURL, "S3_PUBLIC_URL")
	setString(&cfg.OCR.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&cfg.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
			return
		}
	}
}

func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.LogFormat == "" {
		cfg.Server.LogFormat = "text"
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "20M"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.AI.AgentMaxSteps == 0 {
		cfg.AI.AgentMaxSteps = 3
	}
	if cfg.AI.FlashcardsMode == "" {
		cfg.AI.FlashcardsMode = "agent"
	}
	if cfg.Chat.ChunkSize == 0 {
		cfg.Chat.ChunkSize = 1200
	}
	if cfg.Chat.ChunkOverlap == 0 {
		cfg.Chat.ChunkOverlap = 100
	}
	if cfg.Chat.Threshold == 0 {
		cfg.Chat.Threshold = 0.1
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 6
	}
	if cfg.Chat.VectorStore == "" {
		cfg.Chat.VectorStore = "sqlite"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "studykit.db"
	}
	if len(cfg.OCR.Languages) == 0 {
		cfg.OCR.Languages = []string{"ar", "en"}
	}
	if len(cfg.YouTube.Languages) == 0 {
		cfg.YouTube.Languages = []string{"en", "ar", "es", "fr", "de"}
	}
	if cfg.Sessions.MaxTurns == 0 {
		cfg.Sessions.MaxTurns = 20
	}
	if cfg.Sessions.IdleTimeout == 0 {
		cfg.Sessions.IdleTimeout = time.Hour
	}
	if cfg.Sessions.PruneInterval == 0 {
		cfg.Sessions.PruneInterval = 10 * time.Minute
	}
}
