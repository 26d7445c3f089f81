package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Telegram  TelegramConfig
	Session   SessionConfig
	Ai        AIConfig
	Reference ReferenceConfig
	Events    EventsConfig
}

type AppConfig struct {
	Port         string `validate:"required"`
	BaseURL      string
	Environment  string `validate:"oneof=development production test"`
	LogFilePath  string `validate:"required"`
	OtelEnabled  bool
	OtelEndpoint string
}

type DatabaseConfig struct {
	Connection string `validate:"required"`
}

type TelegramConfig struct {
	BotToken      string  `validate:"required"`
	Mode          string  `validate:"oneof=polling webhook"`
	WebhookSecret string  `validate:"required_if=Mode webhook"`
	OperatorIDs   []int64 `validate:"min=1"`
}

type SessionConfig struct {
	Backend  string        `validate:"oneof=memory redis"`
	TTL      time.Duration `validate:"gt=0"`
	RedisURL string        `validate:"required_if=Backend redis"`
}

type AIConfig struct {
	LLMProvider        string `validate:"oneof=ollama openai anthropic"` // "ollama", "openai", "anthropic"
	LLMModel           string `validate:"required"`
	OllamaBaseURL      string
	OpenAIKey          string `validate:"required_if=LLMProvider openai"`
	OpenAIBaseURL      string
	AnthropicKey       string `validate:"required_if=LLMProvider anthropic"`
	TranscriptionModel string
}

type ReferenceConfig struct {
	MinTokenLength int `validate:"min=1,max=36"`
	ListPageSize   int `validate:"min=1,max=20"`
}

type EventsConfig struct {
	LifecycleTopic string `validate:"required"`
	NatsURL        string
	AnnounceChatID int64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	operatorIDs, err := getEnvAsInt64List("OPERATOR_CHAT_IDS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Port:         getEnv("APP_PORT", "3000"),
			BaseURL:      getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:  getEnv("GO_ENV", "development"),
			LogFilePath:  getEnv("LOG_FILE_PATH", "logs/curator.log"),
			OtelEnabled:  getEnv("OTEL_ENABLED", "false") == "true",
			OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			Mode:          getEnv("TELEGRAM_MODE", "polling"),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
			OperatorIDs:   operatorIDs,
		},
		Session: SessionConfig{
			Backend:  getEnv("SESSION_BACKEND", "memory"),
			TTL:      getEnvAsDuration("SESSION_TTL", 6*time.Hour),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:       getEnv("ANTHROPIC_API_KEY", ""),
			TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		},
		Reference: ReferenceConfig{
			MinTokenLength: getEnvAsInt("TOKEN_MIN_LENGTH", 8),
			ListPageSize:   getEnvAsInt("LIST_PAGE_SIZE", 5),
		},
		Events: EventsConfig{
			LifecycleTopic: getEnv("LIFECYCLE_TOPIC", "RECORD_LIFECYCLE"),
			NatsURL:        getEnv("NATS_URL", ""),
			AnnounceChatID: int64(getEnvAsInt("ANNOUNCE_CHAT_ID", 0)),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}

// IsOperator reports whether chatID belongs to the authorized operator.
func (c *Config) IsOperator(chatID int64) bool {
	for _, id := range c.Telegram.OperatorIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64List(key string) ([]int64, error) {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: %s: invalid chat id %q: %w", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
