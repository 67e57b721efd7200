package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// collectFigis merges the flag values with the file list, dropping blanks
// and duplicates while keeping the order.
func collectFigis(flags []string, path string) ([]string, error) {
	all := append([]string{}, flags...)
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read bonds file: %w", err)
		}
		var payload struct {
			Bonds []string `json:"bonds"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse bonds file: %w", err)
		}
		all = append(all, payload.Bonds...)
	}

	seen := make(map[string]struct{}, len(all))
	figis := make([]string, 0, len(all))
	for _, figi := range all {
		figi = strings.ToUpper(strings.TrimSpace(figi))
		if figi == "" {
			continue
		}
		if _, dup := seen[figi]; dup {
			continue
		}
		seen[figi] = struct{}{}
		figis = append(figis, figi)
	}
	return figis, nil
}
