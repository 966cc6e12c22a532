package models

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// ListAvailableModels prints the models usable with the configured key,
// grouped by the two roles they play here: speech synthesis for the
// pronunciation fallback, and chat completion for term analysis.
func (l *Lister) ListAvailableModels() error {
	if l.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .wortkiste.yaml")
	}

	ctx := context.Background()
	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	var ttsModels, analysisModels []string
	for _, model := range models.Models {
		switch {
		case strings.Contains(model.ID, "tts") || strings.Contains(model.ID, "audio"):
			ttsModels = append(ttsModels, model.ID)
		case strings.Contains(model.ID, "gpt") || strings.Contains(model.ID, "chat"):
			analysisModels = append(analysisModels, model.ID)
		}
	}

	sort.Strings(ttsModels)
	sort.Strings(analysisModels)

	fmt.Println("Available OpenAI Models:")

	fmt.Println("\nSpeech synthesis (--tts-model):")
	if len(ttsModels) == 0 {
		fmt.Println("  No TTS models found")
	}
	for _, model := range ttsModels {
		fmt.Printf("  %s\n", model)
	}

	fmt.Println("\nTerm analysis (classification, translation, context):")
	if len(analysisModels) > 10 {
		// The full list is mostly dated snapshots; show the usable ones
		shown := 0
		for _, model := range analysisModels {
			if strings.Contains(model, "gpt-4") || strings.Contains(model, "gpt-3.5") {
				fmt.Printf("  %s\n", model)
				shown++
			}
		}
		fmt.Printf("  ... and %d more models\n", len(analysisModels)-shown)
	} else {
		for _, model := range analysisModels {
			fmt.Printf("  %s\n", model)
		}
	}

	return nil
}
