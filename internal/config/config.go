package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	RedisURL      string

	// Login
	AuthUsername string
	AuthPassword string

	// Completion backend
	LLMProvider    string
	BackendTimeout time.Duration
	Ollama         BackendConfig

	// Gemini AI (only when LLM_PROVIDER=gemini)
	GeminiAPIKey string
	GeminiModel  string
}

// BackendConfig describes the Ollama server the chat endpoint proxies to.
// It is read once at startup and never mutated.
type BackendConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Outbound completion calls are always bounded; a zero or negative
// OLLAMA_TIMEOUT_SECONDS falls back to this.
const defaultBackendTimeoutSeconds = 60

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	backendTimeout := time.Duration(getEnvAsIntOrDefault("OLLAMA_TIMEOUT_SECONDS", defaultBackendTimeoutSeconds)) * time.Second
	if backendTimeout <= 0 {
		backendTimeout = defaultBackendTimeoutSeconds * time.Second
	}

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "5000"),
		Env:            getEnvOrDefault("ENV", "development"),
		SessionSecret:  getEnvOrDefault("SESSION_SECRET", ""),
		SessionTTL:     time.Duration(getEnvAsIntOrDefault("SESSION_TTL_HOURS", 0)) * time.Hour,
		RedisURL:       getEnvOrDefault("REDIS_URL", ""),
		AuthUsername:   getEnvOrDefault("AUTH_USERNAME", "admin"),
		AuthPassword:   getEnvOrDefault("AUTH_PASSWORD", "password"),
		LLMProvider:    strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOllama)),
		BackendTimeout: backendTimeout,
		Ollama: BackendConfig{
			BaseURL: getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
			Model:   getEnvOrDefault("OLLAMA_MODEL", "llama3.1"),
			Timeout: backendTimeout,
		},
		GeminiModel: getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	if cfg.LLMProvider == ProviderGemini {
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
