package card

import (
	"reflect"
	"testing"

	"codeberg.org/fkarsten/wortkiste/internal/audio"
	"codeberg.org/fkarsten/wortkiste/internal/enrich"
)

func wordContent(gender, plural string) *enrich.Content {
	return &enrich.Content{
		Kind:         enrich.KindWord,
		Translations: []string{"table"},
		Gender:       gender,
		Plural:       plural,
	}
}

func TestDisplaySource_WordCapitalized(t *testing.T) {
	if got := DisplaySource("tisch", wordContent("der", "")); got != "Tisch" {
		t.Errorf("DisplaySource = %q, want 'Tisch'", got)
	}
}

func TestDisplaySource_StripsRedundantArticle(t *testing.T) {
	tests := []struct {
		term     string
		gender   string
		expected string
	}{
		{"der Schreibtisch", "der", "Schreibtisch"},
		{"Der Schreibtisch", "der", "Schreibtisch"},
		{"die Lampe", "die", "Lampe"},
		{"Tisch", "der", "Tisch"},
		// Article prefix without matching gender stays as typed
		{"die Lampe", "der", "Die lampe"},
	}

	for _, tt := range tests {
		got := DisplaySource(tt.term, wordContent(tt.gender, ""))
		if got != tt.expected {
			t.Errorf("DisplaySource(%q, gender=%s) = %q, want %q", tt.term, tt.gender, got, tt.expected)
		}
	}
}

func TestDisplaySource_SentenceUntouched(t *testing.T) {
	content := &enrich.Content{Kind: enrich.KindSentence, Translations: []string{"x"}}
	if got := DisplaySource(" Ich gehe ins Kino. ", content); got != "Ich gehe ins Kino." {
		t.Errorf("DisplaySource = %q, want trimmed original", got)
	}
}

func TestAssemble_Word(t *testing.T) {
	content := &enrich.Content{
		Kind:         enrich.KindWord,
		Translations: []string{"table"},
		Gender:       "der",
		Plural:       "Tische",
		Tip:          "tip",
	}
	res := audio.Result{Succeeded: true, SourceTextUsed: "Tisch"}

	c := Assemble(3, "Tisch", content, res)

	if c.ID != 3 {
		t.Errorf("Expected ID 3, got %d", c.ID)
	}
	if c.SourceText != "Tisch" {
		t.Errorf("Expected SourceText 'Tisch', got %q", c.SourceText)
	}
	if c.AudioFileName != "tisch_pronunciation.mp3" {
		t.Errorf("Expected audio 'tisch_pronunciation.mp3', got %q", c.AudioFileName)
	}
	if !reflect.DeepEqual(c.Translations, []string{"table"}) {
		t.Errorf("Translations = %v", c.Translations)
	}
	if c.Gender != "der" || c.Plural != "Tische" {
		t.Errorf("Gender/Plural = %q/%q", c.Gender, c.Plural)
	}
}

func TestAssemble_AudioFailed(t *testing.T) {
	c := Assemble(0, "Tisch", wordContent("der", ""), audio.Result{})
	if c.AudioFileName != "" {
		t.Errorf("Expected no audio filename, got %q", c.AudioFileName)
	}
}

func TestAssemble_GenderedAudioKeepsArticleInFileName(t *testing.T) {
	res := audio.Result{Succeeded: true, SourceTextUsed: "der Tisch"}
	c := Assemble(0, "Tisch", wordContent("der", ""), res)

	if c.AudioFileName != "der_tisch_pronunciation.mp3" {
		t.Errorf("Expected 'der_tisch_pronunciation.mp3', got %q", c.AudioFileName)
	}
	if c.SourceText != "Tisch" {
		t.Errorf("Display text must stay the bare word, got %q", c.SourceText)
	}
}
