package ai

import (
	"errors"

	"github.com/hrygo/docent/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Summary   SummaryConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// LLMConfig represents generation provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     int // request timeout in seconds
}

// SummaryConfig represents the small-model summarization configuration.
// An empty Model disables the model path; the summarizer then uses its
// deterministic formatting fallback.
type SummaryConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewConfigFromProfile builds the AI configuration from the runtime profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   p.EmbeddingProvider,
			Model:      p.EmbeddingModel,
			APIKey:     p.EmbeddingAPIKey,
			BaseURL:    p.EmbeddingBaseURL,
			Dimensions: p.EmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:    p.LLMProvider,
			Model:       p.LLMModel,
			APIKey:      p.LLMAPIKey,
			BaseURL:     p.LLMBaseURL,
			MaxTokens:   p.LLMMaxTokens,
			Temperature: p.LLMTemperature,
			Timeout:     p.LLMTimeout,
		},
		Summary: SummaryConfig{
			Model:   p.SummaryModel,
			APIKey:  p.SummaryAPIKey,
			BaseURL: p.SummaryBaseURL,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	return nil
}
