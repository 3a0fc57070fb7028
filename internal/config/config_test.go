package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL", "LLM_TEMPERATURE",
	"DB_PATH", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"RETRIEVAL_TOP_K", "LIBRARY_MANIFEST", "FETCH_TIMEOUT_SECONDS",
	"FETCH_RATE_PER_SECOND", "MAX_UPLOAD_MB",
}

// clearEnv unsets every configuration variable and restores them when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	t.Cleanup(func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "defaults",
			setupEnv: func(t *testing.T) {},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMBaseURL == "http://localhost:8080/v1" &&
					cfg.LLMAPIKey == "dummy-key" &&
					cfg.LLMTemperature == 0.2 &&
					cfg.DBPath == ":memory:" &&
					cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.RetrievalTopK == 4 &&
					cfg.LibraryManifest == "" &&
					cfg.FetchTimeout == 15*time.Second &&
					cfg.FetchRatePerSecond == 2 &&
					cfg.MaxUploadBytes == 20<<20
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BASE_URL", "http://llm:8000/v1")
				setEnv("LLM_MODEL", "qwen2.5")
				setEnv("LLM_TEMPERATURE", "0.7")
				setEnv("API_PORT", "8088")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
				setEnv("RETRIEVAL_TOP_K", "8")
				setEnv("LIBRARY_MANIFEST", "library.yaml")
				setEnv("FETCH_TIMEOUT_SECONDS", "30")
				setEnv("FETCH_RATE_PER_SECOND", "0.5")
				setEnv("MAX_UPLOAD_MB", "5")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMBaseURL == "http://llm:8000/v1" &&
					cfg.LLMModelName == "qwen2.5" &&
					cfg.LLMTemperature == 0.7 &&
					cfg.APIPort == "8088" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					cfg.RetrievalTopK == 8 &&
					cfg.LibraryManifest == "library.yaml" &&
					cfg.FetchTimeout == 30*time.Second &&
					cfg.FetchRatePerSecond == 0.5 &&
					cfg.MaxUploadBytes == 5<<20
			},
		},
		{
			name:     "invalid RETRIEVAL_TOP_K",
			setupEnv: func(t *testing.T) { setEnv("RETRIEVAL_TOP_K", "four") },
			wantErr:  true,
		},
		{
			name:     "RETRIEVAL_TOP_K out of range",
			setupEnv: func(t *testing.T) { setEnv("RETRIEVAL_TOP_K", "0") },
			wantErr:  true,
		},
		{
			name:     "temperature out of range",
			setupEnv: func(t *testing.T) { setEnv("LLM_TEMPERATURE", "2.5") },
			wantErr:  true,
		},
		{
			name:     "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) { setEnv("LOG_LEVEL", "verbose") },
			wantErr:  true,
		},
		{
			name:     "invalid LOG_FORMAT",
			setupEnv: func(t *testing.T) { setEnv("LOG_FORMAT", "xml") },
			wantErr:  true,
		},
		{
			name:     "invalid MAX_UPLOAD_MB",
			setupEnv: func(t *testing.T) { setEnv("MAX_UPLOAD_MB", "-1") },
			wantErr:  true,
		},
		{
			name:     "negative FETCH_RATE_PER_SECOND",
			setupEnv: func(t *testing.T) { setEnv("FETCH_RATE_PER_SECOND", "-2") },
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	clearEnv(t)

	// Use a temporary directory for testing
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test", "db.db")
	setEnv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check that directory was created
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}

	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestLoad_DotEnvInParent(t *testing.T) {
	clearEnv(t)

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("API_PORT=7777\nRETRIEVAL_TOP_K=6\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Cleanup(func() {
		unsetEnv("API_PORT")
		unsetEnv("RETRIEVAL_TOP_K")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "7777" || cfg.RetrievalTopK != 6 {
		t.Errorf("Load() APIPort = %q, RetrievalTopK = %d", cfg.APIPort, cfg.RetrievalTopK)
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}
