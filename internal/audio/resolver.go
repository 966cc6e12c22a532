package audio

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"codeberg.org/fkarsten/wortkiste/internal"
	"codeberg.org/fkarsten/wortkiste/internal/enrich"
)

// PronunciationLookup fetches recorded native pronunciations
type PronunciationLookup interface {
	DownloadPronunciation(ctx context.Context, word, language, outputFile string) error
}

// Result is the outcome of audio resolution for one term
type Result struct {
	Succeeded bool
	// SourceTextUsed is the exact phrase that was successfully pronounced,
	// possibly including the grammatical article. Empty on total failure.
	SourceTextUsed string
	FilePath       string
}

// FileName derives the stored audio filename from the pronounced text.
// It is a pure function of its input, so resolving the same term again
// overwrites the previous file instead of accumulating new ones.
func FileName(sourceText string) string {
	return internal.SanitizeFilename(strings.ToLower(sourceText)) + "_pronunciation.mp3"
}

// Resolver obtains pronunciation audio through an ordered fallback chain:
// for words, a recorded pronunciation of "<gender> <word>", then of the bare
// word, then speech synthesis. Expressions and sentences go straight to
// synthesis of the full line. Every step may fail independently; failure
// falls through to the next step.
type Resolver struct {
	lookup   PronunciationLookup // nil disables lookup, falling through to synthesis
	tts      Provider
	dir      string
	language string
	log      *logrus.Logger
}

// NewResolver creates a resolver writing audio files into dir
func NewResolver(lookup PronunciationLookup, tts Provider, dir, language string, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{
		lookup:   lookup,
		tts:      tts,
		dir:      dir,
		language: language,
		log:      log,
	}
}

// Resolve walks the fallback chain for one classified term. sourceText is
// the normalized display form, line the original input line.
func (r *Resolver) Resolve(ctx context.Context, kind enrich.Kind, sourceText, gender, line string) Result {
	if kind != enrich.KindWord {
		return r.synthesize(ctx, strings.TrimSpace(line))
	}

	if gender != "" && r.lookup != nil {
		if res, ok := r.tryLookup(ctx, gender+" "+sourceText); ok {
			return res
		}
	}
	if r.lookup != nil {
		if res, ok := r.tryLookup(ctx, sourceText); ok {
			return res
		}
	}
	return r.synthesize(ctx, sourceText)
}

func (r *Resolver) tryLookup(ctx context.Context, query string) (Result, bool) {
	outputFile := filepath.Join(r.dir, FileName(query))
	if err := r.lookup.DownloadPronunciation(ctx, query, r.language, outputFile); err != nil {
		r.log.WithField("query", query).Debugf("pronunciation lookup failed: %v", err)
		return Result{}, false
	}
	return Result{Succeeded: true, SourceTextUsed: query, FilePath: outputFile}, true
}

func (r *Resolver) synthesize(ctx context.Context, text string) Result {
	if text == "" {
		return Result{}
	}
	outputFile := filepath.Join(r.dir, FileName(text))
	if err := r.tts.GenerateAudio(ctx, text, outputFile); err != nil {
		r.log.WithField("text", text).Warnf("speech synthesis failed: %v", err)
		return Result{}
	}
	return Result{Succeeded: true, SourceTextUsed: text, FilePath: outputFile}
}
