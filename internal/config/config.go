package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// FINSIGHT_LLM_API_KEY for llm.api_key.
const EnvPrefix = "FINSIGHT"

type Config struct {
	// HTTP Server
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	MaxUploadBytes     int64
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string

	// OCR
	OCRProvider    string
	MindeeAPIKey   string
	MindeeEndpoint string
	GeminiAPIKey   string
	OCRModel       string
	OCRTimeout     time.Duration

	// LLM
	LLMProvider  string
	LLMAPIKey    string
	LLMModel     string
	LLMBaseURL   string
	LLMTimeout   time.Duration
	LLMCacheSize int
	LLMCacheTTL  time.Duration

	// Sessions
	SessionBackend       string
	SessionTTL           time.Duration
	MaxSessions          int
	SQLiteDSN            string
	CookieName           string
	CacheCleanupInterval time.Duration

	// Budget
	DefaultBudgetGoal string
}

// SetDefaults registers every key with its default so that env overrides
// and Unmarshal-free lookups see them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.rate_limit_per_minute", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ocr.provider", "mindee")
	v.SetDefault("ocr.mindee_api_key", "")
	v.SetDefault("ocr.mindee_endpoint", "")
	v.SetDefault("ocr.gemini_api_key", "")
	v.SetDefault("ocr.model", "gemini-2.0-flash")
	v.SetDefault("ocr.timeout", 60*time.Second)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.cache_size", 512)
	v.SetDefault("llm.cache_ttl", time.Hour)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.sqlite_dsn", "file:finsight?mode=memory&cache=shared")
	v.SetDefault("session.cookie_name", "finsight_session")
	v.SetDefault("session.cleanup_interval", 5*time.Minute)

	v.SetDefault("budget.default_goal", "4000")
}

// BindEnv makes v read FINSIGHT_SECTION_KEY variables for every key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v. Callers set up config files and env
// binding beforehand; defaults are applied here.
func Load(v *viper.Viper) *Config {
	SetDefaults(v)

	cfg := &Config{
		Port:               v.GetString("server.port"),
		ReadTimeout:        v.GetDuration("server.read_timeout"),
		WriteTimeout:       v.GetDuration("server.write_timeout"),
		IdleTimeout:        v.GetDuration("server.idle_timeout"),
		ShutdownTimeout:    v.GetDuration("server.shutdown_timeout"),
		MaxUploadBytes:     v.GetInt64("server.max_upload_bytes"),
		RateLimitPerMinute: v.GetInt("server.rate_limit_per_minute"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),

		OCRProvider:    strings.ToLower(v.GetString("ocr.provider")),
		MindeeAPIKey:   v.GetString("ocr.mindee_api_key"),
		MindeeEndpoint: v.GetString("ocr.mindee_endpoint"),
		GeminiAPIKey:   v.GetString("ocr.gemini_api_key"),
		OCRModel:       v.GetString("ocr.model"),
		OCRTimeout:     v.GetDuration("ocr.timeout"),

		LLMProvider:  strings.ToLower(v.GetString("llm.provider")),
		LLMAPIKey:    v.GetString("llm.api_key"),
		LLMModel:     v.GetString("llm.model"),
		LLMBaseURL:   v.GetString("llm.base_url"),
		LLMTimeout:   v.GetDuration("llm.timeout"),
		LLMCacheSize: v.GetInt("llm.cache_size"),
		LLMCacheTTL:  v.GetDuration("llm.cache_ttl"),

		SessionBackend:       strings.ToLower(v.GetString("session.backend")),
		SessionTTL:           v.GetDuration("session.ttl"),
		MaxSessions:          v.GetInt("session.max_sessions"),
		SQLiteDSN:            v.GetString("session.sqlite_dsn"),
		CookieName:           v.GetString("session.cookie_name"),
		CacheCleanupInterval: v.GetDuration("session.cleanup_interval"),

		DefaultBudgetGoal: v.GetString("budget.default_goal"),
	}

	// Gemini vision shares the LLM key unless it has its own.
	if cfg.GeminiAPIKey == "" && cfg.LLMProvider == "gemini" {
		cfg.GeminiAPIKey = cfg.LLMAPIKey
	}

	return cfg
}

// BudgetGoal returns the parsed default budget goal. Call Validate first.
func (c *Config) BudgetGoal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(c.DefaultBudgetGoal))
	if err != nil {
		return decimal.NewFromInt(4000)
	}
	return d
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"server.read_timeout", c.ReadTimeout},
		{"server.write_timeout", c.WriteTimeout},
		{"server.idle_timeout", c.IdleTimeout},
		{"server.shutdown_timeout", c.ShutdownTimeout},
		{"llm.timeout", c.LLMTimeout},
		{"ocr.timeout", c.OCRTimeout},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be positive", t.name, t.d))
		}
	}

	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if !oneOf(strings.ToLower(c.LogLevel), "debug", "info", "warn", "warning", "error") {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if !oneOf(strings.ToLower(c.LogFormat), "text", "json") {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	switch c.OCRProvider {
	case "mindee":
		if c.MindeeAPIKey == "" {
			errors = append(errors, "Mindee API key is required when using the mindee OCR provider (ocr.mindee_api_key)")
		}
		if c.MindeeEndpoint != "" {
			if u, err := url.Parse(c.MindeeEndpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				errors = append(errors, fmt.Sprintf("invalid Mindee endpoint '%s': must be an http(s) URL", c.MindeeEndpoint))
			}
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errors = append(errors, "Gemini API key is required when using the gemini OCR provider (ocr.gemini_api_key or llm.api_key)")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid OCR provider '%s': must be mindee or gemini", c.OCRProvider))
	}

	if !oneOf(c.LLMProvider, "gemini", "openai") {
		errors = append(errors, fmt.Sprintf("invalid LLM provider '%s': must be gemini or openai", c.LLMProvider))
	}
	if c.LLMAPIKey == "" {
		errors = append(errors, "LLM API key is required (llm.api_key)")
	}
	if c.LLMBaseURL != "" {
		if u, err := url.Parse(c.LLMBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid LLM base URL '%s': must be an http(s) URL", c.LLMBaseURL))
		}
	}
	if c.LLMCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid LLM cache size %d: must not be negative", c.LLMCacheSize))
	}
	if c.LLMCacheSize > 0 && c.LLMCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid LLM cache TTL %v: must be positive when the cache is enabled", c.LLMCacheTTL))
	}

	switch c.SessionBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDSN == "" {
			errors = append(errors, "SQLite DSN cannot be empty when using the sqlite session backend")
		}
		if c.SQLiteDSN == ":memory:" {
			errors = append(errors, "SQLite DSN ':memory:' is private to one connection; use file:<name>?mode=memory&cache=shared")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be memory or sqlite", c.SessionBackend))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}
	if c.CookieName == "" {
		errors = append(errors, "session cookie name cannot be empty")
	}
	if c.CacheCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
	}

	if goal, err := decimal.NewFromString(strings.TrimSpace(c.DefaultBudgetGoal)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default budget goal '%s': must be a number", c.DefaultBudgetGoal))
	} else if goal.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid default budget goal %s: must not be negative", goal))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
