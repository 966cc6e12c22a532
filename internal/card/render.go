package card

import (
	"fmt"
	"strings"

	"codeberg.org/fkarsten/wortkiste/internal/enrich"
)

// Fields renders a card into the four note fields shared by the text export
// and the Anki package: front, back, tip and the word flag driving the
// reversed card template. The three kind branches here and nothing else
// decide what ends up on a card face.
func Fields(c Card) (front, back, tip, isWord string) {
	translation := strings.Join(c.Translations, ", ")

	var frontParts []string
	backParts := []string{translation}

	sound := ""
	if c.AudioFileName != "" {
		sound = fmt.Sprintf("[sound:%s]", c.AudioFileName)
	}

	switch c.Kind {
	case enrich.KindWord:
		gender := ""
		if c.Gender != "" {
			gender = fmt.Sprintf("(%s) ", c.Gender)
		}
		plural := ""
		if c.Plural != "" {
			plural = fmt.Sprintf(" (pl: %s)", c.Plural)
		}
		head := strings.TrimSpace(fmt.Sprintf("%s %s%s%s", sound, gender, c.SourceText, plural))
		frontParts = append(frontParts, head)
		appendContext(&frontParts, &backParts, c.Context)
		isWord = "1"

	case enrich.KindExpression:
		if sound != "" {
			frontParts = append(frontParts, sound)
		}
		frontParts = append(frontParts, c.SourceText)
		appendContext(&frontParts, &backParts, c.Context)

	default: // sentence
		if sound != "" {
			frontParts = append(frontParts, sound)
		}
		frontParts = append(frontParts, c.SourceText)
	}

	return strings.Join(frontParts, "<br>"), strings.Join(backParts, "<br>"), c.Tip, isWord
}

func appendContext(frontParts, backParts *[]string, ctx *enrich.ContextPair) {
	if ctx == nil {
		return
	}
	*frontParts = append(*frontParts, fmt.Sprintf("<i>%s</i>", ctx.German))
	*backParts = append(*backParts, fmt.Sprintf("<i>%s</i>", ctx.English))
}
