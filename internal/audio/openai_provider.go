package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client      *openai.Client
	config      *Config
	cacheDir    string
	enableCache bool
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	client := openai.NewClient(config.OpenAIKey)
	if config.BaseURL != "" {
		cfg := openai.DefaultConfig(config.OpenAIKey)
		cfg.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(cfg)
	}

	provider := &OpenAIProvider{
		client:      client,
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache,
	}

	if provider.enableCache && provider.cacheDir != "" {
		if err := os.MkdirAll(provider.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return provider, nil
}

// GenerateAudio synthesizes speech for the given text and writes it to outputFile
func (p *OpenAIProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("no text to synthesize")
	}

	if p.enableCache {
		cacheFile := p.getCacheFilePath(text)
		if _, err := os.Stat(cacheFile); err == nil {
			return p.copyFile(cacheFile, outputFile)
		}
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(p.config.Voice),
		Speed:          p.config.Speed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	// Voice instructions are only honored by the gpt-4o-mini models
	if p.config.Instruction != "" && strings.HasPrefix(p.config.Model, "gpt-4o-mini") {
		req.Instructions = p.config.Instruction
	}

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	dir := filepath.Dir(outputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, response)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("no audio data received from OpenAI")
	}

	if p.enableCache {
		cacheFile := p.getCacheFilePath(text)
		_ = p.copyFile(outputFile, cacheFile) // Ignore cache errors
	}

	return nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is accessible
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

// getCacheFilePath generates a cache file path for the given text
func (p *OpenAIProvider) getCacheFilePath(text string) string {
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(p.config.Model))
	h.Write([]byte(p.config.Voice))
	h.Write([]byte(fmt.Sprintf("%.2f", p.config.Speed)))
	hash := hex.EncodeToString(h.Sum(nil))

	// First 2 chars as subdirectory for better file system performance
	return filepath.Join(p.cacheDir, hash[:2], hash[2:]+".mp3")
}

// copyFile copies a file from src to dst
func (p *OpenAIProvider) copyFile(src, dst string) error {
	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}
