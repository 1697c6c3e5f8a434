// Package testcase loads and validates the declarative JSON test cases the
// evaluation harness runs.
package testcase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile loads and validates a single test case file.
//
// Validation only guards the shape the pipeline cannot work without: a
// non-empty id, at least one of input and messages, and a metrics key.
// Everything subtler (empty queries, both input and messages, unknown metric
// names) is left to the pipeline so it can surface a structured result
// instead of silently dropping the case.
func LoadFile(path string) (*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test case file: %w", err)
	}

	var tc TestCase
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("failed to parse test case JSON: %w", err)
	}

	if strings.TrimSpace(tc.ID) == "" {
		return nil, fmt.Errorf("missing required field %q", "id")
	}
	if tc.Input == nil && tc.Messages == nil {
		return nil, fmt.Errorf("test case must define %q or %q", "input", "messages")
	}
	if tc.Metrics == nil {
		return nil, fmt.Errorf("missing required field %q", "metrics")
	}

	tc.FilePath = path
	return &tc, nil
}

// LoadDir loads every *.json file directly under dir, in lexical filename
// order. Files that fail to read, parse or validate are skipped with a
// warning so one bad file never sinks the whole batch.
func LoadDir(dir string) ([]*TestCase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test case directory: %w", err)
	}

	var cases []*TestCase
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		tc, err := LoadFile(path)
		if err != nil {
			slog.Warn("Skipping invalid test case file", "path", path, "error", err)
			continue
		}
		cases = append(cases, tc)
	}

	slog.Info("Loaded test cases", "dir", dir, "count", len(cases))
	return cases, nil
}
