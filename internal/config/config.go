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
	PromptsDir  string
	SessionTTL  time.Duration
	NVIDIA      NVIDIAConfig
	ElevenLabs  ElevenLabsConfig
}

// NVIDIAConfig configures the NVIDIA NIM chat endpoint. An empty APIKey
// disables the model capability entirely; the engine then runs offline.
type NVIDIAConfig struct {
	APIKey          string
	BaseURL         string
	DebateModel     string
	SuggestionModel string
}

// ElevenLabsConfig configures text-to-speech voices for the two personas.
type ElevenLabsConfig struct {
	APIKey       string
	JamesVoiceID string
	LindaVoiceID string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	ttlMinutes := getEnvInt("SESSION_TTL_MINUTES", 60)
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/debate.db"),
		PromptsDir:  getEnv("PROMPTS_DIR", ""),
		SessionTTL:  time.Duration(ttlMinutes) * time.Minute,
		NVIDIA: NVIDIAConfig{
			APIKey:          getEnv("NVIDIA_API_KEY", ""),
			BaseURL:         getEnv("NVIDIA_BASE_URL", "https://integrate.api.nvidia.com/v1"),
			DebateModel:     getEnv("NVIDIA_DEBATE_MODEL", "meta/llama3-70b-instruct"),
			SuggestionModel: getEnv("NVIDIA_SUGGESTION_MODEL", "meta/llama-3.1-8b-instruct"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:       getEnv("ELEVENLABS_API_KEY", ""),
			JamesVoiceID: getEnv("ELEVENLABS_JAMES_VOICE_ID", ""),
			LindaVoiceID: getEnv("ELEVENLABS_LINDA_VOICE_ID", ""),
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
	if c.NVIDIA.BaseURL == "" {
		return fmt.Errorf("NVIDIA_BASE_URL cannot be empty")
	}
	if c.NVIDIA.APIKey != "" && c.NVIDIA.DebateModel == "" {
		return fmt.Errorf("NVIDIA_DEBATE_MODEL cannot be empty when NVIDIA_API_KEY is set")
	}
	return nil
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
