package audio

import (
	"context"
	"fmt"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio generates audio from text and saves it to the specified file
	GenerateAudio(ctx context.Context, text string, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds configuration for speech synthesis
type Config struct {
	OpenAIKey   string
	BaseURL     string  // Override the API endpoint, used in tests
	Model       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	Voice       string  // "alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer", "verse"
	Speed       float64 // 0.25 to 4.0
	Instruction string  // Voice instructions for gpt-4o-mini-tts model

	// Caching
	EnableCache bool
	CacheDir    string
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Model: "gpt-4o-mini-tts",
		Voice: "alloy",
		Speed: 1.0,
		Instruction: "You are speaking German (Deutsch). Pronounce the text with " +
			"standard German phonetics. Speak slowly and clearly for language learners.",
	}
}

// NewProvider creates the speech synthesis provider from configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return NewOpenAIProvider(config)
}
