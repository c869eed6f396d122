package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "DATA_DIR", "GAMESTATE_TTL", "OLLAMA_HOST", "OLLAMA_MODEL", "GENERATION_TIMEOUT", "STORAGE_BACKEND", "LLM_PROVIDER", "GEMINI_API_KEY", "OTEL_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.GameStateTTL)
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, StorageRedis, cfg.StorageBackend)
	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, "llama3", cfg.ModelName())
	assert.True(t, cfg.OTelEnabled)
	assert.Empty(t, cfg.OTelEndpoint)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GAMESTATE_TTL", "30m")
	t.Setenv("OLLAMA_MODEL", "mistral")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.GameStateTTL)
	assert.Equal(t, "mistral", cfg.OllamaModel)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestLoad_Backends(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name: "sqlite and gemini",
			env:  map[string]string{"STORAGE_BACKEND": "SQLite", "LLM_PROVIDER": "gemini", "GEMINI_API_KEY": "key"},
		},
		{
			name:    "gemini without key",
			env:     map[string]string{"LLM_PROVIDER": "gemini", "GEMINI_API_KEY": ""},
			wantErr: "GEMINI_API_KEY is required",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"STORAGE_BACKEND": "postgres"},
			wantErr: `unknown STORAGE_BACKEND "postgres"`,
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"LLM_PROVIDER": "oracle"},
			wantErr: `unknown LLM_PROVIDER "oracle"`,
		},
		{
			name:    "zero timeout",
			env:     map[string]string{"GENERATION_TIMEOUT": "0s"},
			wantErr: "GENERATION_TIMEOUT must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StorageSQLite, cfg.StorageBackend)
			assert.Equal(t, "gemini-2.5-flash", cfg.ModelName())
		})
	}
}
