package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON dumps the full per-feed result list as indented JSON, a debugging
// companion to the parquet output. Same atomicity and failure semantics.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results for %s: %w", path, err)
	}

	tmpName := path + ".tmp"
	if err := os.WriteFile(tmpName, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
