package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/config"
	"finsight/internal/ocr"
	"finsight/internal/session"
	"finsight/internal/storage"
)

func baseConfig() *config.Config {
	return &config.Config{
		LogLevel:       "info",
		LogFormat:      "text",
		OCRProvider:    "mindee",
		MindeeAPIKey:   "mindee-key",
		OCRTimeout:     time.Minute,
		LLMProvider:    "openai",
		LLMAPIKey:      "llm-key",
		LLMTimeout:     time.Second,
		LLMCacheSize:   16,
		LLMCacheTTL:    time.Minute,
		SessionBackend: "memory",
		SessionTTL:     time.Hour,
		MaxSessions:    10,
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	cfg := baseConfig()
	cfg.LogFormat = "json"

	logger, err := SetupLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	cfg.LogLevel = "loud"
	_, err = SetupLogger(cfg, &buf)
	assert.Error(t, err)
}

func TestLoadAndValidateConfig(t *testing.T) {
	v := viper.New()
	v.Set("llm.api_key", "k")
	v.Set("ocr.mindee_api_key", "m")

	cfg, err := LoadAndValidateConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)

	bad := viper.New()
	bad.Set("server.port", "nope")
	_, err = LoadAndValidateConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finsight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\nllm:\n  provider: openai\n"), 0o600))

	v := viper.New()
	require.NoError(t, ReadConfigFile(v, path))
	cfg := config.Load(v)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
}

func TestReadConfigFileEnvOverride(t *testing.T) {
	t.Setenv("FINSIGHT_SERVER_PORT", "7070")

	v := viper.New()
	require.NoError(t, ReadConfigFile(v, ""))
	assert.Equal(t, "7070", config.Load(v).Port)
}

func TestNewSessionStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("memory", func(t *testing.T) {
		store, err := NewSessionStore(baseConfig(), logger)
		require.NoError(t, err)
		assert.IsType(t, &session.MemoryStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := baseConfig()
		cfg.SessionBackend = "sqlite"
		cfg.SQLiteDSN = filepath.Join(t.TempDir(), "sessions.db")

		store, err := NewSessionStore(cfg, logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &storage.SessionStore{}, store)
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := baseConfig()
		cfg.SessionBackend = "redis"
		_, err := NewSessionStore(cfg, logger)
		assert.Error(t, err)
	})
}

func TestNewLLMClientExposesPromptCache(t *testing.T) {
	cfg := baseConfig()
	client, promptCache, err := NewLLMClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, promptCache)

	cfg.LLMCacheSize = 0
	_, promptCache, err = NewLLMClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, promptCache)

	cfg.LLMAPIKey = ""
	_, _, err = NewLLMClient(cfg)
	assert.Error(t, err)
}

func TestNewOCRProvider(t *testing.T) {
	cfg := baseConfig()
	provider, err := NewOCRProvider(cfg)
	require.NoError(t, err)
	assert.NotNil(t, provider)

	cfg.MindeeAPIKey = ""
	_, err = NewOCRProvider(cfg)
	assert.Error(t, err)

	cfg.OCRProvider = "gemini"
	cfg.GeminiAPIKey = "gemini-key"
	provider, err = NewOCRProvider(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ocr.GeminiVision{}, provider)

	cfg.GeminiAPIKey = ""
	_, err = NewOCRProvider(cfg)
	assert.Error(t, err)

	cfg.OCRProvider = "tesseract"
	_, err = NewOCRProvider(cfg)
	assert.ErrorContains(t, err, "unsupported OCR provider")
}
