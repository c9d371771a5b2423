package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Chat     ChatConfig
	Infra    InfraConfig
	Ai       AIConfig
	Admin    AdminSeedConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret        string
	JwtExpireMinutes int
}

type ChatConfig struct {
	MaxActiveSessions int
	HistoryLimit      int
	MaxMessageLength  int
	GenerationTimeout time.Duration
	IdempotencyTTL    time.Duration
}

type InfraConfig struct {
	NatsURL     string
	RedisURL    string
	EventBus    string // "nats" or "local"
	LockBackend string // "redis" or "memory"
	LockTTL     time.Duration
}

type AIConfig struct {
	LLMProvider          string
	LLMModel             string
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	RagTopK              int
}

type AdminSeedConfig struct {
	Email    string
	Password string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// lockTTLMargin covers the history load and the two appends around a
// generation, which also run while the turn lock is held.
const lockTTLMargin = 30 * time.Second

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret:        getEnv("JWT_SECRET", ""),
			JwtExpireMinutes: getEnvAsInt("JWT_EXPIRE_MINUTES", 60*24),
		},
		Chat: ChatConfig{
			MaxActiveSessions: getEnvAsInt("MAX_ACTIVE_SESSIONS", 3),
			HistoryLimit:      getEnvAsInt("CHAT_HISTORY_LIMIT", 50),
			MaxMessageLength:  getEnvAsInt("MAX_MESSAGE_LENGTH", 4000),
			GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 120*time.Second),
			IdempotencyTTL:    getEnvAsDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
		Infra: InfraConfig{
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			EventBus:    getEnv("EVENT_BUS", "local"),
			LockBackend: getEnv("LOCK_BACKEND", "memory"),
			LockTTL:     getEnvAsDuration("LOCK_TTL", 3*time.Minute),
		},
		Ai: AIConfig{
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			RagTopK:              getEnvAsInt("RAG_TOP_K", 5),
		},
		Admin: AdminSeedConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@easylaw.local"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	// A lock that expires mid-turn would let a second turn interleave.
	if minTTL := cfg.Chat.GenerationTimeout + lockTTLMargin; cfg.Infra.LockTTL < minTTL {
		log.Printf("Note: LOCK_TTL %s raised to %s to outlast GENERATION_TIMEOUT", cfg.Infra.LockTTL, minTTL)
		cfg.Infra.LockTTL = minTTL
	}

	return cfg
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
