package openrouter

import (
	"errors"
	"os"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "google/gemini-2.5-pro-preview-03-25"
	appTitle       = "AI-Recruiter"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	SiteURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func NewConfig() (*Config, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY environment variable is required")
	}

	cfg := &Config{
		APIKey:      apiKey,
		BaseURL:     defaultBaseURL,
		Model:       defaultModel,
		SiteURL:     os.Getenv("SITE_URL"),
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     30 * time.Second,
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.Model = v
	}
	return cfg, nil
}
