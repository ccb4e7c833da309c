package domain

import (
	"time"
)

// Config represents the main application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	MyVariant  MyVariantConfig  `mapstructure:"myvariant"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Validation ValidationConfig `mapstructure:"validation"`
	History    HistoryConfig    `mapstructure:"history"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration for the serve surface.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// MyVariantConfig represents MyVariant.info API configuration.
type MyVariantConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"` // requests per second
	CacheSize int           `mapstructure:"cache_size"` // in-run LRU entries
}

// LLMConfig represents completion endpoint configuration.
type LLMConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      int           `mapstructure:"rate_limit"` // requests per second
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// AssessmentConfig represents batch assessment configuration.
type AssessmentConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// ValidationConfig represents benchmark validation configuration.
type ValidationConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// HistoryConfig represents the local assessment history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
