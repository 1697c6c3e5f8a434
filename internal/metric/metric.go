// Package metric defines the vocabulary shared by the evaluation pipeline
// and its metric implementations: the canonical evaluation input, per-metric
// outcomes, the registry of recognized metric kinds and the factory that
// turns declarative specs into evaluators.
package metric

import (
	"context"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// Input is the canonical view of one exchange handed to every evaluator.
type Input struct {
	Query        string             `json:"query"`
	History      []testcase.Message `json:"history,omitempty"`
	ActualOutput string             `json:"actual_output"`

	// ExpectedOutput and Context are author-supplied ground truth.
	ExpectedOutput string   `json:"expected_output,omitempty"`
	Context        []string `json:"context,omitempty"`

	// RetrievalContext is the author-supplied set of documents the chatbot
	// should have retrieved. RetrievedContext is what it actually returned
	// alongside its response; metrics that need retrieval context fall back
	// to it when no ground truth was authored.
	RetrievalContext []string `json:"retrieval_context,omitempty"`
	RetrievedContext []string `json:"retrieved_context,omitempty"`
}

// Field identifies an optional Input field a metric kind may require beyond
// the query and the chatbot's actual output.
type Field string

const (
	FieldExpectedOutput   Field = "expected_output"
	FieldContext          Field = "context"
	FieldRetrievalContext Field = "retrieval_context"
)

// Missing reports which of the given fields the input does not carry. The
// retrieval-context requirement is satisfied by either the author-supplied
// or the chatbot-returned documents.
func (in Input) Missing(fields []Field) []Field {
	var missing []Field
	for _, f := range fields {
		present := false
		switch f {
		case FieldExpectedOutput:
			present = in.ExpectedOutput != ""
		case FieldContext:
			present = len(in.Context) > 0
		case FieldRetrievalContext:
			present = len(in.RetrievalContext) > 0 || len(in.RetrievedContext) > 0
		}
		if !present {
			missing = append(missing, f)
		}
	}
	return missing
}

// Outcome is the verdict of a single metric for a single case. Score is nil
// when the metric errored before producing one.
type Outcome struct {
	Metric    string   `json:"metric"`
	Score     *float64 `json:"score"`
	Threshold float64  `json:"threshold"`
	Success   bool     `json:"success"`
	Reason    string   `json:"reason,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Evaluator scores evaluation inputs for one configured metric. Measure
// reports its failures through Outcome.Error instead of returning them, so a
// broken metric can never take down the case it runs in.
type Evaluator interface {
	Name() string
	Threshold() float64
	Async() bool
	Measure(ctx context.Context, in Input) Outcome
}
