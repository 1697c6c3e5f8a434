package testcase

import (
	"encoding/json"
)

// Roles recognized in conversational test cases.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MetricSpec declares one metric to run against a test case. Name selects the
// metric kind; Config holds every other key of the source JSON object
// verbatim (threshold, model, criteria and so on) for the metric factory to
// interpret.
type MetricSpec struct {
	Name   string
	Config map[string]any
}

func (s *MetricSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	name, _ := raw["name"].(string)
	delete(raw, "name")

	s.Name = name
	s.Config = nil
	if len(raw) > 0 {
		s.Config = raw
	}
	return nil
}

func (s MetricSpec) MarshalJSON() ([]byte, error) {
	merged := make(map[string]any, len(s.Config)+1)
	for k, v := range s.Config {
		merged[k] = v
	}
	merged["name"] = s.Name
	return json.Marshal(merged)
}

// TestCase is one declarative evaluation case loaded from a JSON file.
//
// Exactly one of Input and Messages may be present: Input for single-turn
// cases, Messages for conversational ones. A nil Input or a nil Messages
// slice means the corresponding key was absent from the source document,
// which is how the normalizer tells "not set" apart from "set but empty".
type TestCase struct {
	ID       string       `json:"id"`
	Input    *string      `json:"input,omitempty"`
	Messages []Message    `json:"messages,omitempty"`
	Metrics  []MetricSpec `json:"metrics"`

	// Author-supplied ground truth, all optional.
	ExpectedOutput   string   `json:"expected_output,omitempty"`
	Context          []string `json:"context,omitempty"`
	RetrievalContext []string `json:"retrieval_context,omitempty"`

	// FilePath is provenance attached by the loader, not read from the file.
	FilePath string `json:"file_path,omitempty"`
}
