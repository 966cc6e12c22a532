package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/fkarsten/wortkiste/internal/anki"
	"codeberg.org/fkarsten/wortkiste/internal/audio"
	"codeberg.org/fkarsten/wortkiste/internal/card"
	"codeberg.org/fkarsten/wortkiste/internal/cli"
	"codeberg.org/fkarsten/wortkiste/internal/enrich"
)

// ErrBatchInProgress is returned when a batch is started while another
// one is still running. Only one batch may run at a time.
var ErrBatchInProgress = errors.New("another batch is already being processed")

// Enricher analyzes a German term and returns its card content
type Enricher interface {
	Analyze(ctx context.Context, term string) (*enrich.Content, error)
}

// AudioResolver resolves a pronunciation recording for a term
type AudioResolver interface {
	Resolve(ctx context.Context, kind enrich.Kind, sourceText, gender, line string) audio.Result
}

// Progress is called before each term is processed. index is 1-based.
type Progress func(index, total int, term string)

// Outputs names the files a batch run writes
type Outputs struct {
	ExportPath  string
	PackagePath string
	DeckName    string
	AudioDir    string
}

// Processor turns a list of German terms into flashcards
type Processor struct {
	flags    *cli.Flags
	enricher Enricher
	resolver AudioResolver
	delay    time.Duration
	audioDir string
	log      *logrus.Logger

	// Guards the single batch execution slot
	busy sync.Mutex
}

// New creates a processor from the CLI flags. It fails when no OpenAI
// API key is configured since both enrichment and the TTS fallback
// depend on it. A missing Forvo key only disables Forvo lookups.
func New(flags *cli.Flags, log *logrus.Logger) (*Processor, error) {
	if log == nil {
		log = logrus.New()
	}

	openAIKey := cli.GetOpenAIKey()
	enricher, err := enrich.NewEnricher(openAIKey)
	if err != nil {
		return nil, err
	}

	audioDir := flags.AudioDir
	if !filepath.IsAbs(audioDir) && flags.OutputDir != "" {
		audioDir = filepath.Join(flags.OutputDir, flags.AudioDir)
	}

	var lookup audio.PronunciationLookup
	if forvoKey := cli.GetForvoKey(); forvoKey != "" {
		lookup = audio.NewForvoClient(forvoKey)
	} else {
		log.Info("No Forvo API key configured, using TTS for all audio")
	}

	ttsConfig := audio.DefaultProviderConfig()
	ttsConfig.OpenAIKey = openAIKey
	ttsConfig.Model = flags.TTSModel
	ttsConfig.Voice = flags.TTSVoice
	ttsConfig.Speed = flags.TTSSpeed
	if flags.TTSInstruction != "" {
		ttsConfig.Instruction = flags.TTSInstruction
	}
	tts, err := audio.NewProvider(ttsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS provider: %w", err)
	}

	resolver := audio.NewResolver(lookup, tts, audioDir, flags.Language, log)

	return &Processor{
		flags:    flags,
		enricher: enricher,
		resolver: resolver,
		delay:    flags.Delay,
		audioDir: audioDir,
		log:      log,
	}, nil
}

// AudioDir returns the directory pronunciation files are written to
func (p *Processor) AudioDir() string {
	return p.audioDir
}

// Generate processes terms in order and returns the assembled cards.
// Terms that fail are logged and dropped; the rest keep the input
// order. Cancelling ctx stops scheduling further terms but does not
// abandon the term already in flight.
func (p *Processor) Generate(ctx context.Context, terms []string, progress Progress) ([]card.Card, error) {
	if !p.busy.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer p.busy.Unlock()

	if err := os.MkdirAll(p.audioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	// Stale recordings from a previous run would end up in the new
	// package via the media map
	if err := p.CleanupAudio(); err != nil {
		p.log.WithError(err).Warn("Failed to clean up old audio files")
	}

	cards := make([]card.Card, 0, len(terms))
	for i, term := range terms {
		if err := ctx.Err(); err != nil {
			p.log.WithField("remaining", len(terms)-i).Info("Batch cancelled")
			return cards, err
		}

		if progress != nil {
			progress(i+1, len(terms), term)
		}

		c, err := p.processTerm(ctx, i, term)
		if err != nil {
			p.log.WithField("term", term).WithError(err).Error("Skipping term")
			continue
		}
		cards = append(cards, *c)

		if p.delay > 0 && i < len(terms)-1 {
			select {
			case <-ctx.Done():
				return cards, ctx.Err()
			case <-time.After(p.delay):
			}
		}
	}

	return cards, nil
}

// Regenerate re-processes a single term, keeping the given card ID.
// Audio for other cards stays untouched.
func (p *Processor) Regenerate(ctx context.Context, term string, id int) (*card.Card, error) {
	if !p.busy.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer p.busy.Unlock()

	if err := os.MkdirAll(p.audioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	return p.processTerm(ctx, id, term)
}

func (p *Processor) processTerm(ctx context.Context, id int, term string) (*card.Card, error) {
	content, err := p.enricher.Analyze(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %q: %w", term, err)
	}

	source := card.DisplaySource(term, content)
	res := p.resolver.Resolve(ctx, content.Kind, source, content.Gender, term)

	c := card.Assemble(id, term, content, res)
	return &c, nil
}

// WriteOutputs writes the export file and the Anki package
func (p *Processor) WriteOutputs(cards []card.Card, out Outputs) error {
	if err := card.WriteExport(cards, out.ExportPath); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	gen := anki.NewAPKGGenerator(out.DeckName, out.AudioDir)
	gen.AddCards(cards)
	if err := gen.GenerateAPKG(out.PackagePath); err != nil {
		return fmt.Errorf("failed to generate Anki package: %w", err)
	}

	return nil
}

// CleanupAudio removes all mp3 files from the audio directory
func (p *Processor) CleanupAudio() error {
	matches, err := filepath.Glob(filepath.Join(p.audioDir, "*.mp3"))
	if err != nil {
		return err
	}

	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}
