// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string
	LogJSON         bool
	LogDebug        bool

	AIReviewEnabled bool
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
}

// Load reads configuration from environment variables with sensible
// defaults. Local .env files are loaded best-effort for dev convenience.
func Load() Config {
	_ = godotenv.Load(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Env:             env,
		LogJSON:         env != "dev" && env != "local",
		LogDebug:        parseBool(getEnv("LOG_DEBUG", "false")),
		AIReviewEnabled: parseBool(getEnv("AI_REVIEW_ENABLED", "true")),
		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
