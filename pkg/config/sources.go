package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/umputun/feedlens/pkg/domain"
)

// LoadSources reads the feed source list, a JSON array of
// {"url": "...", "tags": ["..."]} records. Records without a url
// are rejected: there is nothing to fetch for them.
func LoadSources(path string) ([]domain.Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var sources []domain.Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	for i, src := range sources {
		if strings.TrimSpace(src.URL) == "" {
			return nil, fmt.Errorf("source %d in %s has no url", i, path)
		}
	}

	return sources, nil
}
