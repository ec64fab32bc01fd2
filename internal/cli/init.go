// Package cli provides the initialization shared by the finsight commands
// and the terminal output of `finsight scan`.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"finsight/internal/cache"
	"finsight/internal/config"
	"finsight/internal/llm"
	"finsight/internal/log"
	"finsight/internal/ocr"
	"finsight/internal/session"
	"finsight/internal/storage"
)

// SessionStore is a session store whose expired entries can be swept by the
// cache janitor.
type SessionStore interface {
	session.Store
	cache.Cleaner
}

// SetupLogger builds the application logger from cfg and installs it as the
// default slog logger.
func SetupLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// ReadConfigFile reads path into v, or finsight.yaml from the working
// directory or $HOME/.config/finsight when path is empty. A missing default
// file is not an error. Environment overrides are bound as well.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "finsight"))
		}
		v.SetConfigName("finsight")
		v.SetConfigType("yaml")
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// LoadAndValidateConfig loads configuration from v and validates it.
func LoadAndValidateConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Load(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewSessionStore opens the configured session backend.
func NewSessionStore(cfg *config.Config, logger *slog.Logger) (SessionStore, error) {
	switch cfg.SessionBackend {
	case "sqlite":
		store, err := storage.NewSessionStore(cfg.SQLiteDSN, cfg.SessionTTL, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		logger.Info("Initialized SQLite session store", "dsn", cfg.SQLiteDSN)
		return store, nil
	case "", "memory":
		logger.Info("Initialized memory session store", "max_sessions", cfg.MaxSessions, "ttl", cfg.SessionTTL)
		return session.NewMemoryStore(cfg.MaxSessions, cfg.SessionTTL, logger), nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.SessionBackend)
	}
}

// NewLLMClient creates the configured model client. The returned cache is
// the prompt cache when caching is enabled, nil otherwise.
func NewLLMClient(cfg *config.Config) (llm.Client, *cache.LRUCache[string], error) {
	client, err := llm.NewClient(llm.Config{
		Provider:  cfg.LLMProvider,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.LLMBaseURL,
		Timeout:   cfg.LLMTimeout,
		CacheSize: cfg.LLMCacheSize,
		CacheTTL:  cfg.LLMCacheTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create llm client: %w", err)
	}
	if cc, ok := client.(*llm.CachingClient); ok {
		return client, cc.Cache(), nil
	}
	return client, nil, nil
}

// NewOCRProvider creates the configured receipt OCR provider.
func NewOCRProvider(cfg *config.Config) (ocr.Provider, error) {
	var (
		provider ocr.Provider
		err      error
	)
	switch cfg.OCRProvider {
	case "", "mindee":
		provider, err = ocr.NewMindeeClient(cfg.MindeeAPIKey, cfg.MindeeEndpoint, cfg.OCRTimeout)
	case "gemini":
		provider, err = ocr.NewGeminiVision(cfg.GeminiAPIKey, "", cfg.OCRModel, cfg.OCRTimeout)
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", cfg.OCRProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s OCR provider: %w", cfg.OCRProvider, err)
	}
	return provider, nil
}
