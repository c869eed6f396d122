package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string     `env:"PORT" envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level `env:"-"`

	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"redis"` // redis or sqlite
	RedisURL       string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"./data/narrative.db"`
	DataDir        string        `env:"DATA_DIR" envDefault:"./data"`
	GameStateTTL   time.Duration `env:"GAMESTATE_TTL" envDefault:"24h"`

	LLMProvider       string        `env:"LLM_PROVIDER" envDefault:"ollama"` // ollama or gemini
	OllamaHost        string        `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OllamaModel       string        `env:"OLLAMA_MODEL" envDefault:"llama3"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`

	// Tracing is off unless an OTLP endpoint is set.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"

	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backends are known and configured.
func (c *Config) Validate() error {
	var errs []error
	switch c.StorageBackend {
	case StorageRedis, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	switch c.LLMProvider {
	case ProviderOllama:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER is gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// ModelName returns the model of the selected provider.
func (c *Config) ModelName() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OllamaModel
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
