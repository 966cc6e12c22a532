package card

import (
	"bufio"
	"fmt"
	"os"
)

// WriteExport writes the plain-text export: one line per card, front and
// back separated by a semicolon, for manual Anki import with "semicolon" as
// the field separator. The tip has no field of its own in this format and is
// appended to the back instead.
func WriteExport(cards []Card, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, c := range cards {
		front, back, tip, _ := Fields(c)
		if tip != "" {
			back += fmt.Sprintf("<br><br>💡 <i>%s</i>", tip)
		}
		if _, err := fmt.Fprintf(w, "%s;%s\n", front, back); err != nil {
			return fmt.Errorf("failed to write export line: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
