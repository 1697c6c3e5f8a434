package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/metric"
	"github.com/google/go-cmp/cmp"
)

// stubEvaluator returns a canned outcome, optionally after a delay, and
// tracks how many instances run at the same time.
type stubEvaluator struct {
	name    string
	async   bool
	success bool
	delay   time.Duration

	running *atomic.Int32
	peak    *atomic.Int32
}

func (s *stubEvaluator) Name() string       { return s.name }
func (s *stubEvaluator) Threshold() float64 { return 0.5 }
func (s *stubEvaluator) Async() bool        { return s.async }

func (s *stubEvaluator) Measure(ctx context.Context, in metric.Input) metric.Outcome {
	if s.running != nil {
		now := s.running.Add(1)
		for {
			peak := s.peak.Load()
			if now <= peak || s.peak.CompareAndSwap(peak, now) {
				break
			}
		}
		defer s.running.Add(-1)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	score := 0.9
	if !s.success {
		score = 0.1
	}
	return metric.Outcome{Metric: s.name, Score: &score, Threshold: 0.5, Success: s.success}
}

func outcomeNames(outcomes []metric.Outcome) []string {
	var names []string
	for _, o := range outcomes {
		names = append(names, o.Metric)
	}
	return names
}

func TestEvaluateKeepsEvaluatorOrder(t *testing.T) {
	// The first async evaluator is the slowest; order must not reflect
	// completion time.
	evaluators := []metric.Evaluator{
		&stubEvaluator{name: "slow", async: true, success: true, delay: 30 * time.Millisecond},
		&stubEvaluator{name: "sequential", success: true},
		&stubEvaluator{name: "fast", async: true, success: true},
	}

	results, err := (&Local{}).Evaluate(context.Background(), []metric.Input{{Query: "q", ActualOutput: "a"}}, evaluators)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Evaluate returned %d results, want 1", len(results))
	}

	want := []string{"slow", "sequential", "fast"}
	if diff := cmp.Diff(want, outcomeNames(results[0].Outcomes)); diff != "" {
		t.Errorf("Outcome order mismatch (-want +got):\n%s", diff)
	}
	if !results[0].Success {
		t.Error("Success = false, want true when every metric passes")
	}
}

func TestEvaluateOneFailureFailsTheCase(t *testing.T) {
	evaluators := []metric.Evaluator{
		&stubEvaluator{name: "passes", success: true},
		&stubEvaluator{name: "fails", success: false},
		&stubEvaluator{name: "passes_too", success: true},
	}

	results, err := (&Local{}).Evaluate(context.Background(), []metric.Input{{}}, evaluators)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if results[0].Success {
		t.Error("Success = true, want false when one metric fails")
	}
	if len(results[0].Outcomes) != 3 {
		t.Errorf("Outcomes = %d, want all 3 metrics measured", len(results[0].Outcomes))
	}
}

func TestEvaluateNoMetricsIsVacuouslySuccessful(t *testing.T) {
	results, err := (&Local{}).Evaluate(context.Background(), []metric.Input{{}}, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !results[0].Success {
		t.Error("Success = false, want vacuous true with no evaluators")
	}
	if len(results[0].Outcomes) != 0 {
		t.Errorf("Outcomes = %d, want 0", len(results[0].Outcomes))
	}
}

func TestEvaluateOneResultPerInput(t *testing.T) {
	evaluators := []metric.Evaluator{&stubEvaluator{name: "m", success: true}}
	inputs := []metric.Input{{Query: "a"}, {Query: "b"}, {Query: "c"}}

	results, err := (&Local{}).Evaluate(context.Background(), inputs, evaluators)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(results) != len(inputs) {
		t.Errorf("Evaluate returned %d results, want %d", len(results), len(inputs))
	}
}

func TestEvaluateAsyncRunsConcurrently(t *testing.T) {
	var running, peak atomic.Int32
	var evaluators []metric.Evaluator
	for i := 0; i < 4; i++ {
		evaluators = append(evaluators, &stubEvaluator{
			name:    "m",
			async:   true,
			success: true,
			delay:   20 * time.Millisecond,
			running: &running,
			peak:    &peak,
		})
	}

	if _, err := (&Local{}).Evaluate(context.Background(), []metric.Input{{}}, evaluators); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if peak.Load() < 2 {
		t.Errorf("peak concurrency = %d, want at least 2", peak.Load())
	}
}

func TestEvaluateMaxConcurrentCapsParallelism(t *testing.T) {
	var running, peak atomic.Int32
	var evaluators []metric.Evaluator
	for i := 0; i < 6; i++ {
		evaluators = append(evaluators, &stubEvaluator{
			name:    "m",
			async:   true,
			success: true,
			delay:   10 * time.Millisecond,
			running: &running,
			peak:    &peak,
		})
	}

	if _, err := (&Local{MaxConcurrent: 2}).Evaluate(context.Background(), []metric.Input{{}}, evaluators); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", got)
	}
}

func TestEvaluateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Local{}).Evaluate(ctx, []metric.Input{{}}, []metric.Evaluator{&stubEvaluator{name: "m"}})
	if err == nil {
		t.Fatal("Evaluate succeeded on a canceled context, want error")
	}
}

// Guard against lost writes with a mixed async and sequential set: every
// outcome slot must be written exactly once.
func TestEvaluateAllSlotsWritten(t *testing.T) {
	var evaluators []metric.Evaluator
	for i := 0; i < 10; i++ {
		async := i%2 == 0
		evaluators = append(evaluators, &stubEvaluator{name: "m", async: async, success: true})
	}

	results, err := (&Local{}).Evaluate(context.Background(), []metric.Input{{}}, evaluators)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for i, o := range results[0].Outcomes {
		if o.Metric == "" {
			t.Errorf("outcome %d was never written", i)
		}
	}
}
