// Package config loads application configuration from files and environment
// variables via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// Manager loads and holds the application configuration.
type Manager struct {
	config *domain.Config
}

// NewManager creates a configuration manager and loads configuration from
// defaults, an optional config file, and TUMORBOARD_* environment variables.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/tumorboard/")

	viper.SetEnvPrefix("TUMORBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// MyVariant.info defaults
	viper.SetDefault("myvariant.base_url", "https://myvariant.info/v1")
	viper.SetDefault("myvariant.timeout", "30s")
	viper.SetDefault("myvariant.rate_limit", 10)
	viper.SetDefault("myvariant.cache_size", 256)

	// Completion endpoint defaults
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 2048)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.rate_limit", 5)
	viper.SetDefault("llm.max_attempts", 3)
	viper.SetDefault("llm.initial_backoff", "2s")
	viper.SetDefault("llm.max_backoff", "10s")

	// Pipeline defaults
	viper.SetDefault("assessment.max_concurrent", 5)
	viper.SetDefault("validation.max_concurrent", 3)

	// History defaults
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "./data/history.db")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// Reload reloads the configuration.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate checks the configuration for values the pipeline cannot run with.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.MyVariant.BaseURL == "" {
		return fmt.Errorf("myvariant base URL is required")
	}
	if config.LLM.BaseURL == "" {
		return fmt.Errorf("llm base URL is required")
	}
	if config.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if config.LLM.Temperature < 0 || config.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm temperature: %g", config.LLM.Temperature)
	}
	if config.Assessment.MaxConcurrent < 1 {
		return fmt.Errorf("assessment max_concurrent must be at least 1")
	}
	if config.Validation.MaxConcurrent < 1 {
		return fmt.Errorf("validation max_concurrent must be at least 1")
	}
	if config.History.Enabled && config.History.Path == "" {
		return fmt.Errorf("history path is required when history is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
