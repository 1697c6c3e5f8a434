package evaltest

import (
	"context"
	"strings"
	"testing"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/eval"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// Scenario evaluates one case in given/when/then steps, mirroring how
// acceptance suites phrase chatbot checks:
//
//	evaltest.NewScenario(t).
//		GivenCaseFile("testdata/refund.json").
//		WhenEvaluated(ctx, pipeline).
//		ThenPasses()
type Scenario struct {
	t   testing.TB
	tc  *testcase.TestCase
	res *eval.Result
}

func NewScenario(t testing.TB) *Scenario {
	return &Scenario{t: t}
}

// GivenCase uses an in-memory test case.
func (s *Scenario) GivenCase(tc *testcase.TestCase) *Scenario {
	s.tc = tc
	return s
}

// GivenCaseFile loads the scenario's test case from a JSON file.
func (s *Scenario) GivenCaseFile(path string) *Scenario {
	s.t.Helper()
	tc, err := testcase.LoadFile(path)
	if err != nil {
		s.t.Fatalf("failed to load test case file %s: %v", path, err)
	}
	s.tc = tc
	return s
}

// WhenEvaluated runs the case through the pipeline.
func (s *Scenario) WhenEvaluated(ctx context.Context, p *eval.Pipeline) *Scenario {
	s.t.Helper()
	if s.tc == nil {
		s.t.Fatal("no test case given, call GivenCase or GivenCaseFile first")
	}
	s.res = p.EvaluateCase(ctx, s.tc)
	return s
}

// Result returns the evaluation result produced by WhenEvaluated.
func (s *Scenario) Result() *eval.Result {
	return s.res
}

// ThenPasses asserts the evaluation succeeded.
func (s *Scenario) ThenPasses() *Scenario {
	s.t.Helper()
	s.mustHaveResult()
	Assert(s.t, s.res)
	return s
}

// ThenFails asserts the evaluation did not succeed.
func (s *Scenario) ThenFails() *Scenario {
	s.t.Helper()
	s.mustHaveResult()
	if s.res.Success {
		s.t.Errorf("test case %q passed, expected it to fail", s.res.ID)
	}
	return s
}

// ThenErrorContains asserts the pipeline-level error mentions substr.
func (s *Scenario) ThenErrorContains(substr string) *Scenario {
	s.t.Helper()
	s.mustHaveResult()
	if !strings.Contains(s.res.Error, substr) {
		s.t.Errorf("test case %q error = %q, want it to contain %q", s.res.ID, s.res.Error, substr)
	}
	return s
}

func (s *Scenario) mustHaveResult() {
	s.t.Helper()
	if s.res == nil {
		s.t.Fatal("scenario was not evaluated, call WhenEvaluated first")
	}
}
