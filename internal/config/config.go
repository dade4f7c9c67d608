// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	Analyzer AnalyzerConfig
	Voice    VoiceConfig
}

// AnalyzerConfig controls the external conversation analyzer.
type AnalyzerConfig struct {
	APIKey         string
	Model          string
	MaxTokens      int
	MaxAttempts    int
	RequestTimeout time.Duration
}

// VoiceConfig controls the conversational voice relay.
type VoiceConfig struct {
	APIKey      string
	AgentID     string
	UpstreamURL string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/pitchlab.db"),
		Analyzer: AnalyzerConfig{
			APIKey:         getEnv("ANTHROPIC_API_KEY", ""),
			Model:          getEnv("ANTHROPIC_MODEL", ""),
			MaxTokens:      getEnvInt("ANALYZER_MAX_TOKENS", 1500),
			MaxAttempts:    getEnvInt("ANALYZER_MAX_ATTEMPTS", 3),
			RequestTimeout: time.Duration(getEnvInt("ANALYZER_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Voice: VoiceConfig{
			APIKey:      getEnv("VOICE_API_KEY", ""),
			AgentID:     getEnv("VOICE_AGENT_ID", ""),
			UpstreamURL: getEnv("VOICE_UPSTREAM_URL", "wss://api.elevenlabs.io/v1/convai/conversation"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Analyzer.MaxAttempts <= 0 {
		return fmt.Errorf("ANALYZER_MAX_ATTEMPTS must be > 0")
	}
	if c.Analyzer.MaxTokens <= 0 {
		return fmt.Errorf("ANALYZER_MAX_TOKENS must be > 0")
	}
	if c.Voice.UpstreamURL == "" {
		return fmt.Errorf("VOICE_UPSTREAM_URL cannot be empty")
	}
	return nil
}

// AnalysisEnabled returns true when an analyzer API key is configured.
func (c *Config) AnalysisEnabled() bool {
	return c.Analyzer.APIKey != ""
}

// VoiceEnabled returns true when the voice relay is configured.
func (c *Config) VoiceEnabled() bool {
	return c.Voice.APIKey != "" && c.Voice.AgentID != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
