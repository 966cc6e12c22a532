// Package archive moves finished batch outputs out of the way so the
// next run starts clean while nothing gets lost.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveOutputs moves the given files and directories into a
// timestamped directory under outputDir/archive. Paths that do not
// exist are skipped; archiving nothing is an error.
func ArchiveOutputs(outputDir string, paths ...string) (string, error) {
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return "", fmt.Errorf("nothing to archive in %s", outputDir)
	}

	archiveDir := filepath.Join(outputDir, "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("flashcards-%s", timestamp))

	// Unlikely, but two runs within a second would collide
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("flashcards-%s", timestamp))
	}

	if err := os.MkdirAll(archivePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	for _, path := range existing {
		target := filepath.Join(archivePath, filepath.Base(path))
		if err := os.Rename(path, target); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", path, err)
		}
	}

	return archivePath, nil
}
