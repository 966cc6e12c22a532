package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Sentinel is the placeholder the model is instructed to return for fields
// that do not apply. A sentinel translation means the whole term failed.
const Sentinel = "N/A"

// ErrNoTranslation signals that the service could not produce a usable
// translation for the term. The term is dropped, not retried.
var ErrNoTranslation = errors.New("no usable translation returned")

// Kind classifies a term and drives field requirements and audio strategy.
type Kind string

const (
	KindWord       Kind = "word"
	KindExpression Kind = "expression"
	KindSentence   Kind = "sentence"
)

// ContextPair is a bilingual example sentence using the term.
type ContextPair struct {
	German  string `json:"german"`
	English string `json:"english"`
}

// Content is the result of classifying and enriching one term. Optional
// fields are empty when the service had nothing usable for them.
type Content struct {
	Kind         Kind
	Translations []string
	Gender       string
	Plural       string
	Context      *ContextPair
	Tip          string
}

// Enricher handles classification and enrichment of German terms
type Enricher struct {
	apiKey string
	client *openai.Client
	model  string
}

// NewEnricher creates a new enricher instance. The API key is required;
// without it no processing can happen at all.
func NewEnricher(apiKey string) (*Enricher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found")
	}
	return &Enricher{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}, nil
}

// NewEnricherWithBaseURL creates an enricher pointed at a different API
// endpoint, for testing against a local mock server.
func NewEnricherWithBaseURL(apiKey, baseURL string) (*Enricher, error) {
	e, err := NewEnricher(apiKey)
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	e.client = openai.NewClientWithConfig(cfg)
	return e, nil
}

const analyzePrompt = `Analyze the German input: "%s"

First classify it as exactly one of: word, expression, sentence.
Then provide:
1. The English translation (comma separated if there are several)
2. For a word: the grammatical gender (der, die or das) and the plural form
3. For a word or expression: a simple German context sentence and its English translation
4. Optionally a short memory tip for learners

Format as:
Type: [word|expression|sentence]
Translation: [Text]
Gender: [Text]
Plural: [Text]
German Context: [Text]
English Context: [Text]
Tip: [Text]

Use "N/A" for any field that does not apply.`

// Analyze issues a single structured request for one term and parses the
// reply into a Content. A sentinel-marked translation returns
// ErrNoTranslation and no partial content.
func (e *Enricher) Analyze(ctx context.Context, term string) (*Content, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a German language expert. Provide concise, accurate info.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(analyzePrompt, term),
			},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return ContentFromReply(resp.Choices[0].Message.Content)
}

// ContentFromReply turns a raw structured reply into a Content, applying the
// sentinel rules. Split out from Analyze so it can be tested without a
// network connection.
func ContentFromReply(reply string) (*Content, error) {
	fields := parseReply(reply)

	translation := getField(fields, "translation")
	if strings.Contains(translation, Sentinel) {
		return nil, ErrNoTranslation
	}

	content := &Content{
		Kind:         parseKind(getField(fields, "type")),
		Translations: splitTranslations(translation),
		Gender:       dropSentinel(getField(fields, "gender")),
		Plural:       dropSentinel(getField(fields, "plural")),
		Tip:          dropSentinel(getField(fields, "tip")),
	}

	// Gender and plural only mean anything for words
	if content.Kind != KindWord {
		content.Gender = ""
		content.Plural = ""
	}

	if german := getField(fields, "german_context"); german != Sentinel {
		content.Context = &ContextPair{
			German:  german,
			English: dropSentinel(getField(fields, "english_context")),
		}
	}

	return content, nil
}

func parseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expression":
		return KindExpression
	case "sentence":
		return KindSentence
	default:
		return KindWord
	}
}

func splitTranslations(s string) []string {
	parts := strings.Split(s, ",")
	translations := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			translations = append(translations, p)
		}
	}
	return translations
}

func dropSentinel(s string) string {
	if s == Sentinel {
		return ""
	}
	return s
}
