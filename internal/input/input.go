// Package input reads and normalizes the raw term list that a batch run
// processes. One line is one term: a word, an expression or a full sentence.
package input

import (
	"fmt"
	"os"
	"strings"
)

// ReadInputFile reads terms from a file, one per line. Blank lines and
// surrounding whitespace are dropped.
func ReadInputFile(filename string) ([]string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	return Normalize(strings.Split(string(content), "\n")), nil
}

// Normalize trims every line and drops the empty ones, preserving order.
// The server uses this on the words list from a generate request too.
func Normalize(lines []string) []string {
	terms := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			terms = append(terms, line)
		}
	}
	return terms
}
