// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Translation provider names accepted by TCMS_TRANSLATION_PROVIDER.
const (
	ProviderDeepL  = "deepl"
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

var knownProviders = []string{ProviderDeepL, ProviderGoogle, ProviderOpenAI}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"TCMS_DB_PATH" envDefault:"./data/travelcms.db"`
	ServerHost string `env:"TCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"TCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"TCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"TCMS_LOG_LEVEL"`
	SeedDemo   bool   `env:"TCMS_SEED_DEMO"` // Insert demo content into an empty database

	// Cache configuration
	RedisURL     string `env:"TCMS_REDIS_URL"`                         // Optional Redis URL for the translation memo
	CachePrefix  string `env:"TCMS_CACHE_PREFIX" envDefault:"tcms:"`   // Redis key prefix
	CacheTTL     int    `env:"TCMS_CACHE_TTL" envDefault:"3600"`       // Memo TTL in seconds
	CacheMaxSize int    `env:"TCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Translation provider configuration
	TranslationProvider string  `env:"TCMS_TRANSLATION_PROVIDER" envDefault:"deepl"`
	DeepLAPIKey         string  `env:"TCMS_DEEPL_API_KEY"`
	DeepLAPIURL         string  `env:"TCMS_DEEPL_API_URL" envDefault:"https://api-free.deepl.com/v2/translate"`
	GoogleAPIKey        string  `env:"TCMS_GOOGLE_API_KEY"`
	OpenAIAPIKey        string  `env:"TCMS_OPENAI_API_KEY"`
	OpenAIBaseURL       string  `env:"TCMS_OPENAI_BASE_URL"`
	OpenAIModel         string  `env:"TCMS_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	ProviderRPS         float64 `env:"TCMS_PROVIDER_RPS" envDefault:"2"`
	ProviderBurst       int     `env:"TCMS_PROVIDER_BURST" envDefault:"4"`

	// Background work
	TranslationWorkers    int    `env:"TCMS_TRANSLATION_WORKERS" envDefault:"2"`
	AutoTranslateSchedule string `env:"TCMS_AUTO_TRANSLATE_SCHEDULE"` // Cron spec; empty disables the sweep
	JobRetentionDays      int    `env:"TCMS_JOB_RETENTION_DAYS" envDefault:"30"`
	EventRetentionDays    int    `env:"TCMS_EVENT_RETENTION_DAYS" envDefault:"90"`

	// HTTP API
	APIRateLimit   float64       `env:"TCMS_API_RATE_LIMIT" envDefault:"10"`
	APIRateBurst   int           `env:"TCMS_API_RATE_BURST" envDefault:"20"`
	RequestTimeout time.Duration `env:"TCMS_REQUEST_TIMEOUT" envDefault:"60s"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// AutoTranslateEnabled returns true if the scheduled translation sweep is configured.
func (c Config) AutoTranslateEnabled() bool {
	return strings.TrimSpace(c.AutoTranslateSchedule) != ""
}

// SlogLevel maps LogLevel to a slog level. An empty value means debug in
// development and info elsewhere.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if c.IsDevelopment() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.TranslationProvider = strings.ToLower(strings.TrimSpace(cfg.TranslationProvider))
	if !slices.Contains(knownProviders, cfg.TranslationProvider) {
		return nil, fmt.Errorf("TCMS_TRANSLATION_PROVIDER must be one of %s, got %q",
			strings.Join(knownProviders, ", "), cfg.TranslationProvider)
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("TCMS_SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.TranslationWorkers < 1 {
		return nil, fmt.Errorf("TCMS_TRANSLATION_WORKERS must be at least 1, got %d", cfg.TranslationWorkers)
	}

	if cfg.ProviderRPS <= 0 {
		return nil, fmt.Errorf("TCMS_PROVIDER_RPS must be positive, got %v", cfg.ProviderRPS)
	}

	if cfg.ProviderAPIKey() == "" {
		slog.Warn("no API key configured for translation provider; translation jobs will fail",
			"provider", cfg.TranslationProvider)
	}

	return cfg, nil
}

// ProviderAPIKey returns the API key of the selected translation provider.
func (c Config) ProviderAPIKey() string {
	switch c.TranslationProvider {
	case ProviderDeepL:
		return c.DeepLAPIKey
	case ProviderGoogle:
		return c.GoogleAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}
