package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	DBPath    string
	LogLevel  slog.Level
	LogFormat string

	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string
	LLMTimeout   time.Duration

	EmbeddingBaseURL   string
	EmbeddingModelName string

	QdrantURL        string
	QdrantCollection string
	// QdrantVectorSize of 0 disables the related-scene index.
	QdrantVectorSize int

	// FeedbackURL and MediaURL are optional; empty disables the collaborator.
	FeedbackURL string
	MediaURL    string

	SuggestDebounce  time.Duration
	SuggestMinChars  int
	OverviewPageSize int
	DetailPageSize   int
}

// IndexEnabled reports whether the related-scene index is configured.
func (c *Config) IndexEnabled() bool {
	return c.QdrantVectorSize > 0
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		DBPath:             getEnv("DB_PATH", "./data/storyline.db"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "json")),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "scenes"),
		FeedbackURL:        getEnv("FEEDBACK_URL", ""),
		MediaURL:           getEnv("MEDIA_URL", ""),
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.SuggestDebounce, err = getDuration("SUGGEST_DEBOUNCE", 1500*time.Millisecond); err != nil {
		return nil, err
	}

	// Note: QDRANT_VECTOR_SIZE must match the output vector size of the
	// embeddings model. If it changes, the Qdrant collection must be recreated.
	if cfg.QdrantVectorSize, err = getInt("QDRANT_VECTOR_SIZE", 0, 0); err != nil {
		return nil, err
	}
	if cfg.SuggestMinChars, err = getInt("SUGGEST_MIN_CHARS", 20, 1); err != nil {
		return nil, err
	}
	if cfg.OverviewPageSize, err = getInt("OVERVIEW_PAGE_SIZE", 10, 1); err != nil {
		return nil, err
	}
	if cfg.DetailPageSize, err = getInt("DETAIL_PAGE_SIZE", 5, 1); err != nil {
		return nil, err
	}

	// Create the data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt parses an integer variable that must be at least min.
func getInt(key string, defaultValue, min int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v < min {
		return 0, fmt.Errorf("%s must be at least %d", key, min)
	}
	return v, nil
}

// getDuration parses a positive duration such as "1500ms" or "2s".
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}
