package eval

import (
	"fmt"
	"strings"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// MalformedCaseError reports a test case that violates the required shape
// and cannot be evaluated.
type MalformedCaseError struct {
	CaseID string
	Reason string
}

func (e *MalformedCaseError) Error() string {
	return fmt.Sprintf("malformed test case %q: %s", e.CaseID, e.Reason)
}

// Request is the canonical evaluation request derived from a test case: the
// query to send to the chatbot, the prior turns, and the ground-truth fields
// copied from the case.
type Request struct {
	Query            string
	History          []testcase.Message
	ExpectedOutput   string
	Context          []string
	RetrievalContext []string
}

// Normalize converts a raw test case into a canonical evaluation request.
//
// A case is conversational when it carries messages and single-turn when it
// carries input; defining both or neither is malformed. A conversational
// case must end with a user turn, whose content becomes the query;
// everything before it becomes the history.
func Normalize(tc *testcase.TestCase) (*Request, error) {
	malformed := func(reason string) error {
		return &MalformedCaseError{CaseID: tc.ID, Reason: reason}
	}

	hasInput := tc.Input != nil
	hasMessages := tc.Messages != nil

	switch {
	case hasInput && hasMessages:
		return nil, malformed("defines both input and messages")
	case !hasInput && !hasMessages:
		return nil, malformed("defines neither input nor messages")
	}

	req := &Request{
		ExpectedOutput:   tc.ExpectedOutput,
		Context:          tc.Context,
		RetrievalContext: tc.RetrievalContext,
	}

	if hasMessages {
		if len(tc.Messages) == 0 {
			return nil, malformed("messages is empty")
		}
		last := tc.Messages[len(tc.Messages)-1]
		if last.Role != testcase.RoleUser {
			return nil, malformed(fmt.Sprintf("messages must end with a %q turn, got %q", testcase.RoleUser, last.Role))
		}
		req.Query = last.Content
		req.History = tc.Messages[:len(tc.Messages)-1]
		return req, nil
	}

	if strings.TrimSpace(*tc.Input) == "" {
		return nil, malformed("input is empty")
	}
	req.Query = *tc.Input
	return req, nil
}
