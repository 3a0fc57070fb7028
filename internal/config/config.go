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
	LLMBaseURL     string
	LLMModelName   string
	LLMAPIKey      string
	LLMTemperature float64

	DBPath  string
	APIPort string

	LogLevel  slog.Level
	LogFormat string

	RetrievalTopK      int
	LibraryManifest    string
	FetchTimeout       time.Duration
	FetchRatePerSecond float64
	MaxUploadBytes     int64
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates numeric ranges.
// If a .env file exists in the current directory or one of its parents, it is loaded.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		LLMBaseURL:      getEnv("LLM_BASE_URL", "http://localhost:8080/v1"),
		LLMModelName:    getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:       getEnv("LLM_API_KEY", "dummy-key"),
		DBPath:          getEnv("DB_PATH", ":memory:"),
		APIPort:         getEnv("API_PORT", "9000"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LibraryManifest: getEnv("LIBRARY_MANIFEST", ""),
	}

	var err error
	if cfg.LLMTemperature, err = parseFloat("LLM_TEMPERATURE", "0.2", 0, 2); err != nil {
		return nil, err
	}
	if cfg.RetrievalTopK, err = parseInt("RETRIEVAL_TOP_K", "4", 1, 20); err != nil {
		return nil, err
	}
	timeoutSeconds, err := parseInt("FETCH_TIMEOUT_SECONDS", "15", 1, 300)
	if err != nil {
		return nil, err
	}
	cfg.FetchTimeout = time.Duration(timeoutSeconds) * time.Second
	if cfg.FetchRatePerSecond, err = parseFloat("FETCH_RATE_PER_SECOND", "2", 0, 100); err != nil {
		return nil, err
	}
	maxUploadMB, err := parseInt("MAX_UPLOAD_MB", "20", 1, 1024)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// Create the data directory for file-backed databases
	if !isMemoryDSN(cfg.DBPath) {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, searching the working directory
// and up to five parents. Missing files are ignored.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i <= 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

func isMemoryDSN(path string) bool {
	return strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

func parseInt(key, defaultValue string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parseFloat(key, defaultValue string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(getEnv(key, defaultValue), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %g and %g, got %g", key, lo, hi, v)
	}
	return v, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
