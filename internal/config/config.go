package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Groq (OpenAI-compatible) chat + classification
	GroqAPIKey     string
	GroqBaseURL    string
	ChatModel      string
	ChatTemp       float32
	ChatMaxTokens  int
	ChatTimeout    time.Duration
	SentimentModel string
	// Sentiment calls must stay fast; anything slower degrades to neutral.
	SentimentTimeout time.Duration
	// Gemini (OpenAI-compatible) embeddings for context retrieval
	GeminiAPIKey   string
	GeminiBaseURL  string
	EmbeddingModel string
	KnowledgeFile  string
	RetrievalTopK  int
	PromptFile     string
	// Database
	DatabaseURL   string
	MigrationsDir string
	// Committee auth
	JWTSecret string
	// Logging
	LogDir   string
	LogLevel string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigin:    getEnvDefault("ALLOWED_ORIGIN", "*"),
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:      getEnvDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		ChatModel:        getEnvDefault("GROQ_CHAT_MODEL", "llama-3.3-70b-versatile"),
		ChatTemp:         getEnvFloatDefault("GROQ_CHAT_TEMPERATURE", 0.7),
		ChatMaxTokens:    getEnvIntDefault("GROQ_CHAT_MAX_TOKENS", 1024),
		ChatTimeout:      getEnvDurationDefault("CHAT_TIMEOUT", 120*time.Second),
		SentimentModel:   getEnvDefault("GROQ_SENTIMENT_MODEL", "llama-3.1-8b-instant"),
		SentimentTimeout: getEnvDurationDefault("SENTIMENT_TIMEOUT", 10*time.Second),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:    getEnvDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		EmbeddingModel:   getEnvDefault("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		KnowledgeFile:    getEnvDefault("KNOWLEDGE_FILE", "./knowledge/posh.yaml"),
		RetrievalTopK:    getEnvIntDefault("RETRIEVAL_TOP_K", 3),
		PromptFile:       getEnvDefault("PROMPT_FILE", "./prompts/assistant.yaml"),
		DatabaseURL:      os.Getenv("DB_URL"),
		MigrationsDir:    getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		LogDir:           getEnvDefault("LOG_DIR", "./logs"),
		LogLevel:         getEnvDefault("LOG_LEVEL", "info"),
	}
	if cfg.GroqAPIKey == "" {
		log.Println("warning: GROQ_API_KEY is not set; chat and sentiment calls will fail until provided")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Printf("warning: invalid %s %q, using default %d", key, v, def)
	}
	return def
}

func getEnvFloatDefault(key string, def float32) float32 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err == nil {
			return float32(f)
		}
		log.Printf("warning: invalid %s %q, using default %v", key, v, def)
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
		log.Printf("warning: invalid %s %q, using default %s", key, v, def)
	}
	return def
}
