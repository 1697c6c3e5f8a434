package eval

import (
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/metric"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// Result is the structured outcome of evaluating one test case. Error names
// the pipeline-level failure when one occurred; per-metric failures live in
// the individual outcomes. ChatbotResponse is nil when no usable response
// was obtained, as opposed to an empty response.
type Result struct {
	ID               string             `json:"id"`
	Success          bool               `json:"success"`
	DurationSeconds  float64            `json:"duration_seconds"`
	ChatbotResponse  *string            `json:"chatbot_response"`
	RetrievedContext []string           `json:"retrieval_context_extracted,omitempty"`
	MetricResults    []metric.Outcome   `json:"metrics_results,omitempty"`
	Error            string             `json:"error,omitempty"`
	FilePath         string             `json:"file_path,omitempty"`
	TestCase         *testcase.TestCase `json:"test_case_details,omitempty"`
}
