// Package evaltest integrates the evaluation pipeline with Go's testing
// package, so chatbot quality checks can run as ordinary go test cases: one
// subtest per case file, failures reported with the per-metric breakdown.
package evaltest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/chatbot"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/eval"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// Assert fails t unless the result succeeded. The failure message carries
// the case id, the pipeline error and the per-metric breakdown.
func Assert(t testing.TB, res *eval.Result) {
	t.Helper()
	if res.Success {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "test case %q failed", res.ID)
	if res.Error != "" {
		fmt.Fprintf(&b, ": %s", res.Error)
	}
	for _, m := range res.MetricResults {
		fmt.Fprintf(&b, "\n  %s: score %s, threshold %.2f, success %v",
			m.Metric, scoreLabel(m.Score), m.Threshold, m.Success)
		if m.Reason != "" {
			fmt.Fprintf(&b, ", reason: %s", m.Reason)
		}
		if m.Error != "" {
			fmt.Fprintf(&b, ", error: %s", m.Error)
		}
	}
	t.Error(b.String())
}

// RunDir loads every case file under dir and evaluates each one as its own
// subtest, named after the file and case id. It skips when the directory
// holds no cases.
func RunDir(t *testing.T, ctx context.Context, p *eval.Pipeline, dir string) {
	t.Helper()

	cases, err := testcase.LoadDir(dir)
	if err != nil {
		t.Fatalf("failed to load test cases from %s: %v", dir, err)
	}
	if len(cases) == 0 {
		t.Skipf("no test cases found in %s", dir)
	}

	for _, tc := range cases {
		name := fmt.Sprintf("%s[%s]", filepath.Base(tc.FilePath), tc.ID)
		t.Run(name, func(t *testing.T) {
			Assert(t, p.EvaluateCase(ctx, tc))
		})
	}
}

// PipelineFromEnv builds a pipeline against the chatbot named by
// CHATBOT_API_ENDPOINT, skipping the test when it is not set so quality
// suites stay green on machines without a backend. The adapter is shut down
// when the test finishes.
func PipelineFromEnv(t testing.TB) *eval.Pipeline {
	t.Helper()

	endpoint := os.Getenv("CHATBOT_API_ENDPOINT")
	if endpoint == "" {
		t.Skip("CHATBOT_API_ENDPOINT is not set")
	}

	adapter, err := chatbot.NewHTTP(chatbot.Config{
		Endpoint: endpoint,
		APIKey:   os.Getenv("CHATBOT_API_KEY"),
	})
	if err != nil {
		t.Fatalf("failed to build chatbot adapter: %v", err)
	}
	t.Cleanup(adapter.Shutdown)

	var model any
	if m := os.Getenv("EVAL_MODEL"); m != "" {
		model = m
	}

	runAsync := true
	if v := os.Getenv("EVAL_RUN_ASYNC"); v != "" {
		runAsync = isTruthy(v)
	}

	return eval.New(adapter, eval.Options{Model: model, RunAsync: runAsync})
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "t", "y", "yes":
		return true
	}
	return false
}

func scoreLabel(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*score, 'f', 4, 64)
}
