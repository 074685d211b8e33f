package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindLatestScenario finds the most recent scenario file in a directory.
func FindLatestScenario(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var scenarios []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			scenarios = append(scenarios, filepath.Join(dir, entry.Name()))
		}
	}
	if len(scenarios) == 0 {
		return "", fmt.Errorf("no scenario files found in %s", dir)
	}

	// Sort by modification time (newest first).
	sort.Slice(scenarios, func(i, j int) bool {
		infoI, _ := os.Stat(scenarios[i])
		infoJ, _ := os.Stat(scenarios[j])
		return infoI.ModTime().After(infoJ.ModTime())
	})
	return scenarios[0], nil
}
