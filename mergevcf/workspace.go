package mergevcf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// createWorkspace makes a timestamped run directory under outputDir
// with a subdirectory for normalized files.
func createWorkspace(outputDir string) (string, error) {
	baseDir := filepath.Join(outputDir, "mergeVcfRuns")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	now := time.Now()
	workspace := filepath.Join(baseDir, fmt.Sprintf("%02d_%02d_%04d_%02d_%02d_%02d",
		now.Day(), now.Month(), now.Year(), now.Hour(), now.Minute(), now.Second()))

	for _, sub := range []string{"inputs", "norm"} {
		if err := os.MkdirAll(filepath.Join(workspace, sub), 0755); err != nil {
			return "", fmt.Errorf("creating run directory: %w", err)
		}
	}
	fmt.Printf("Created run directory at %s ..\n\n", workspace)

	return workspace, nil
}
