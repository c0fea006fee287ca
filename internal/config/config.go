// Package config loads process configuration from the environment once at
// boot; components receive explicit values and never read the environment
// themselves.
package config

import (
	"os"
	"strconv"

	"book-chat/internal/llm"
)

// Config carries every environment-derived setting.
type Config struct {
	HTTPPort    int
	DBPath      string
	AllowOrigin string

	Provider llm.FactoryConfig

	HistoryLimit     int
	MaxContextTokens int

	BookName   string
	BookTopics string
}

// Load reads the configuration from the process environment.
func Load() Config {
	return Config{
		HTTPPort:    envInt("BOOK_CHAT_PORT", 8080),
		DBPath:      envOrDefault("BOOK_CHAT_DB_PATH", "data/book-chat.db"),
		AllowOrigin: os.Getenv("BOOK_CHAT_ALLOW_ORIGIN"),
		Provider: llm.FactoryConfig{
			Provider:     envOrDefault("AI_PROVIDER", llm.ProviderGemini),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:  os.Getenv("OPENAI_MODEL"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  os.Getenv("GEMINI_MODEL"),
		},
		HistoryLimit:     envInt("BOOK_CHAT_HISTORY_LIMIT", 50),
		MaxContextTokens: envInt("BOOK_CHAT_MAX_CONTEXT_TOKENS", 6000),
		BookName:         os.Getenv("BOOK_NAME"),
		BookTopics:       os.Getenv("BOOK_TOPICS"),
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
