package eval

import (
	"errors"
	"strings"
	"testing"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

func TestNormalizeSingleTurn(t *testing.T) {
	tc := &testcase.TestCase{
		ID:               "single",
		Input:            strPtr("What are your hours?"),
		ExpectedOutput:   "9 to 5",
		Context:          []string{"ctx"},
		RetrievalContext: []string{"doc"},
	}

	req, err := Normalize(tc)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if req.Query != "What are your hours?" {
		t.Errorf("Query = %q", req.Query)
	}
	if req.History != nil {
		t.Errorf("History = %v, want nil", req.History)
	}
	if req.ExpectedOutput != "9 to 5" {
		t.Errorf("ExpectedOutput = %q", req.ExpectedOutput)
	}
	if diff := cmp.Diff([]string{"doc"}, req.RetrievalContext); diff != "" {
		t.Errorf("RetrievalContext mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeConversational(t *testing.T) {
	tc := &testcase.TestCase{
		ID: "conv",
		Messages: []testcase.Message{
			{Role: "user", Content: "My blender broke."},
			{Role: "assistant", Content: "What is the order number?"},
			{Role: "user", Content: "A-10293, refund please."},
		},
	}

	req, err := Normalize(tc)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if req.Query != "A-10293, refund please." {
		t.Errorf("Query = %q, want the last user turn", req.Query)
	}
	wantHistory := []testcase.Message{
		{Role: "user", Content: "My blender broke."},
		{Role: "assistant", Content: "What is the order number?"},
	}
	if diff := cmp.Diff(wantHistory, req.History); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSingleMessageConversation(t *testing.T) {
	tc := &testcase.TestCase{
		ID:       "conv_one",
		Messages: []testcase.Message{{Role: "user", Content: "hi"}},
	}

	req, err := Normalize(tc)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if req.Query != "hi" {
		t.Errorf("Query = %q", req.Query)
	}
	if len(req.History) != 0 {
		t.Errorf("History = %v, want empty", req.History)
	}
}

func TestNormalizeMalformedCases(t *testing.T) {
	tests := []struct {
		name       string
		tc         *testcase.TestCase
		wantReason string
	}{
		{
			name:       "both input and messages",
			tc:         &testcase.TestCase{ID: "x", Input: strPtr("hi"), Messages: []testcase.Message{{Role: "user", Content: "hi"}}},
			wantReason: "both input and messages",
		},
		{
			name:       "neither input nor messages",
			tc:         &testcase.TestCase{ID: "x"},
			wantReason: "neither input nor messages",
		},
		{
			name:       "empty input",
			tc:         &testcase.TestCase{ID: "x", Input: strPtr("   ")},
			wantReason: "input is empty",
		},
		{
			name:       "empty messages",
			tc:         &testcase.TestCase{ID: "x", Messages: []testcase.Message{}},
			wantReason: "messages is empty",
		},
		{
			name:       "last message not from user",
			tc:         &testcase.TestCase{ID: "x", Messages: []testcase.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}},
			wantReason: `must end with a "user" turn`,
		},
		{
			name:       "empty input present alongside empty messages",
			tc:         &testcase.TestCase{ID: "x", Input: strPtr(""), Messages: []testcase.Message{}},
			wantReason: "both input and messages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.tc)
			if err == nil {
				t.Fatal("Normalize succeeded, want error")
			}

			var malformed *MalformedCaseError
			if !errors.As(err, &malformed) {
				t.Fatalf("error type = %T, want *MalformedCaseError", err)
			}
			if malformed.CaseID != tt.tc.ID {
				t.Errorf("CaseID = %q, want %q", malformed.CaseID, tt.tc.ID)
			}
			if !strings.Contains(err.Error(), tt.wantReason) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantReason)
			}
		})
	}
}
