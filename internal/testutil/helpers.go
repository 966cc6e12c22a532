package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CreateTestFile creates a test file with content, making parent
// directories as needed
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// WriteInputFile writes an input file with one term per line and
// returns its path
func WriteInputFile(t *testing.T, dir string, terms ...string) string {
	t.Helper()

	path := filepath.Join(dir, "input.txt")
	content := ""
	for _, term := range terms {
		content += term + "\n"
	}
	CreateTestFile(t, path, []byte(content))
	return path
}

// AssertFileExists fails the test when the file is missing
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file %s to exist: %v", path, err)
	}
}
