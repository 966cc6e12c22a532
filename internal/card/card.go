// Package card assembles classified terms and resolved audio into immutable
// flashcard records and renders them for the plain-text export and the Anki
// package. Assembly is pure: all network and disk work happened upstream.
package card

import (
	"strings"

	"codeberg.org/fkarsten/wortkiste/internal"
	"codeberg.org/fkarsten/wortkiste/internal/audio"
	"codeberg.org/fkarsten/wortkiste/internal/enrich"
)

// Card is the finalized flashcard record for one term. Never mutated after
// assembly. The JSON tags are the wire shape the server returns for preview.
type Card struct {
	ID            int                 `json:"id"`
	SourceText    string              `json:"source"`
	Translations  []string            `json:"translation"`
	Context       *enrich.ContextPair `json:"context,omitempty"`
	Gender        string              `json:"gender,omitempty"`
	Plural        string              `json:"plural,omitempty"`
	Kind          enrich.Kind         `json:"input_type"`
	Tip           string              `json:"tip,omitempty"`
	AudioFileName string              `json:"audio,omitempty"`
}

// DisplaySource computes the normalized display form of a term. Words are
// capitalized; a leading article matching the grammatical gender is
// stripped, so "der Schreibtisch" displays as "Schreibtisch" with the
// article carried in the gender field instead.
func DisplaySource(term string, content *enrich.Content) string {
	source := strings.TrimSpace(term)
	if content.Kind != enrich.KindWord {
		return source
	}

	source = internal.CapitalizeFirst(source)
	if g := content.Gender; g != "" {
		prefix := strings.ToLower(g) + " "
		if strings.HasPrefix(strings.ToLower(source), prefix) {
			source = internal.CapitalizeFirst(strings.TrimSpace(source[len(prefix):]))
		}
	}
	return source
}

// Assemble builds the Card for a term at the given batch position. The audio
// filename is derived from the query text that actually got pronounced, or
// left empty when resolution failed entirely.
func Assemble(index int, term string, content *enrich.Content, res audio.Result) Card {
	c := Card{
		ID:           index,
		SourceText:   DisplaySource(term, content),
		Translations: content.Translations,
		Context:      content.Context,
		Kind:         content.Kind,
		Tip:          content.Tip,
	}

	if content.Kind == enrich.KindWord {
		c.Gender = content.Gender
		c.Plural = content.Plural
	}

	if res.Succeeded {
		c.AudioFileName = audio.FileName(res.SourceTextUsed)
	}

	return c
}
