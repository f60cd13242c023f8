package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken      string
	LogLevel           string
	LogFormat          string
	OllamaURL          string // пусто: описание без модели
	OllamaModel        string
	DefaultSensitivity *float64 // nil: адаптивные пороги
	BatchWorkers       int
	SkipTopology       bool
}

const (
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
	defaultOllamaModel  = "llava"
	defaultBatchWorkers = 4
)

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:      envOr("LOG_LEVEL", defaultLogLevel),
		LogFormat:     envOr("LOG_FORMAT", defaultLogFormat),
		OllamaURL:     os.Getenv("OLLAMA_URL"),
		OllamaModel:   envOr("OLLAMA_MODEL", defaultOllamaModel),
		BatchWorkers:  defaultBatchWorkers,
	}

	if v := strings.TrimSpace(os.Getenv("DEFAULT_SENSITIVITY")); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_SENSITIVITY: %w", err)
		}
		cfg.DefaultSensitivity = &f
	}
	if v := strings.TrimSpace(os.Getenv("BATCH_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("BATCH_WORKERS must be a positive integer, got %q", v)
		}
		cfg.BatchWorkers = n
	}
	if v := strings.TrimSpace(os.Getenv("SKIP_TOPOLOGY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("SKIP_TOPOLOGY: %w", err)
		}
		cfg.SkipTopology = b
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
