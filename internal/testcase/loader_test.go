package testcase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeCaseFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFileSingleTurn(t *testing.T) {
	path := writeCaseFile(t, t.TempDir(), "greeting.json", `{
		"id": "greeting_01",
		"input": "Say hello",
		"metrics": [{"name": "AnswerRelevancy", "threshold": 0.7}],
		"expected_output": "Hello!",
		"context": ["The bot greets users."],
		"retrieval_context": ["Greeting policy v2"]
	}`)

	tc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if tc.ID != "greeting_01" {
		t.Errorf("ID = %q, want %q", tc.ID, "greeting_01")
	}
	if tc.Input == nil || *tc.Input != "Say hello" {
		t.Errorf("Input = %v, want %q", tc.Input, "Say hello")
	}
	if tc.Messages != nil {
		t.Errorf("Messages = %v, want nil", tc.Messages)
	}
	if tc.FilePath != path {
		t.Errorf("FilePath = %q, want %q", tc.FilePath, path)
	}
	if tc.ExpectedOutput != "Hello!" {
		t.Errorf("ExpectedOutput = %q, want %q", tc.ExpectedOutput, "Hello!")
	}

	wantMetrics := []MetricSpec{
		{Name: "AnswerRelevancy", Config: map[string]any{"threshold": 0.7}},
	}
	if diff := cmp.Diff(wantMetrics, tc.Metrics); diff != "" {
		t.Errorf("Metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileConversational(t *testing.T) {
	path := writeCaseFile(t, t.TempDir(), "refund.json", `{
		"id": "refund_01",
		"messages": [
			{"role": "user", "content": "My blender arrived broken."},
			{"role": "assistant", "content": "Sorry to hear that. What is your order number?"},
			{"role": "user", "content": "A-10293. Can I get a refund?"}
		],
		"metrics": [{"name": "AnswerRelevancy"}]
	}`)

	tc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if tc.Input != nil {
		t.Errorf("Input = %v, want nil", tc.Input)
	}

	wantMessages := []Message{
		{Role: "user", Content: "My blender arrived broken."},
		{Role: "assistant", Content: "Sorry to hear that. What is your order number?"},
		{Role: "user", Content: "A-10293. Can I get a refund?"},
	}
	if diff := cmp.Diff(wantMessages, tc.Messages); diff != "" {
		t.Errorf("Messages mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing id",
			content: `{"input": "hi", "metrics": []}`,
			wantErr: `"id"`,
		},
		{
			name:    "blank id",
			content: `{"id": "   ", "input": "hi", "metrics": []}`,
			wantErr: `"id"`,
		},
		{
			name:    "neither input nor messages",
			content: `{"id": "x", "metrics": []}`,
			wantErr: `"input" or "messages"`,
		},
		{
			name:    "missing metrics key",
			content: `{"id": "x", "input": "hi"}`,
			wantErr: `"metrics"`,
		},
		{
			name:    "metrics not a list",
			content: `{"id": "x", "input": "hi", "metrics": "AnswerRelevancy"}`,
			wantErr: "failed to parse",
		},
		{
			name:    "not JSON at all",
			content: `hello world`,
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCaseFile(t, t.TempDir(), "case.json", tt.content)
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileAcceptsEdgeShapes(t *testing.T) {
	// These shapes load fine; the pipeline decides what to do with them.
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "empty metrics list",
			content: `{"id": "x", "input": "hi", "metrics": []}`,
		},
		{
			name:    "metric spec without a name",
			content: `{"id": "x", "input": "hi", "metrics": [{"threshold": 0.9}]}`,
		},
		{
			name:    "both input and messages",
			content: `{"id": "x", "input": "hi", "messages": [{"role": "user", "content": "hi"}], "metrics": []}`,
		},
		{
			name:    "empty messages list",
			content: `{"id": "x", "messages": [], "metrics": []}`,
		},
		{
			name:    "unknown extra keys",
			content: `{"id": "x", "input": "hi", "metrics": [], "notes": "ignored"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCaseFile(t, t.TempDir(), "case.json", tt.content)
			if _, err := LoadFile(path); err != nil {
				t.Errorf("LoadFile failed: %v", err)
			}
		})
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("LoadFile succeeded, want error")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error = %q, want it to contain %q", err, "failed to read")
	}
}

func TestLoadDirSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeCaseFile(t, dir, "a_valid.json", `{"id": "a", "input": "hi", "metrics": []}`)
	writeCaseFile(t, dir, "b_broken.json", `{not json`)
	writeCaseFile(t, dir, "c_invalid.json", `{"input": "no id", "metrics": []}`)
	writeCaseFile(t, dir, "d_valid.JSON", `{"id": "d", "input": "yo", "metrics": []}`)
	writeCaseFile(t, dir, "ignored.txt", `not a test case`)

	cases, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	var ids []string
	for _, tc := range cases {
		ids = append(ids, tc.ID)
	}
	want := []string{"a", "d"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("Loaded case ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("LoadDir succeeded, want error")
	}
}

func TestMetricSpecRoundTrip(t *testing.T) {
	in := `{"name": "GEval", "criteria": "Be polite", "threshold": 0.8}`

	var spec MetricSpec
	if err := json.Unmarshal([]byte(in), &spec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if spec.Name != "GEval" {
		t.Errorf("Name = %q, want %q", spec.Name, "GEval")
	}
	wantConfig := map[string]any{"criteria": "Be polite", "threshold": 0.8}
	if diff := cmp.Diff(wantConfig, spec.Config); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var roundTripped MetricSpec
	if err := json.Unmarshal(out, &roundTripped); err != nil {
		t.Fatalf("Unmarshal of marshaled spec failed: %v", err)
	}
	if diff := cmp.Diff(spec, roundTripped); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricSpecMissingNameTolerated(t *testing.T) {
	var spec MetricSpec
	if err := json.Unmarshal([]byte(`{"threshold": 0.9}`), &spec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if spec.Name != "" {
		t.Errorf("Name = %q, want empty", spec.Name)
	}
	if diff := cmp.Diff(map[string]any{"threshold": 0.9}, spec.Config); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}
