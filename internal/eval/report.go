package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/metric"
)

// Report aggregates one evaluation run.
type Report struct {
	RunID           string    `json:"run_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	TotalCases      int       `json:"total_cases"`
	PassedCases     int       `json:"passed_cases"`
	FailedCases     int       `json:"failed_cases"`
	Results         []*Result `json:"results"`
}

// SaveReport writes the report as indented JSON, creating the directory if
// needed.
func SaveReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// LoadReport reads a report saved by SaveReport.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report JSON: %w", err)
	}
	return &report, nil
}

// WriteSummary prints a human-readable run summary: totals first, then the
// failed cases with their per-metric breakdown, then one line per passed
// case.
func WriteSummary(w io.Writer, report *Report) {
	bar := strings.Repeat("=", 60)

	fmt.Fprintln(w, bar)
	fmt.Fprintln(w, "Evaluation Summary Report")
	fmt.Fprintln(w, bar)
	fmt.Fprintf(w, "Run ID:      %s\n", report.RunID)
	fmt.Fprintf(w, "Total cases: %d\n", report.TotalCases)
	fmt.Fprintf(w, "Passed:      %d%s\n", report.PassedCases, percentage(report.PassedCases, report.TotalCases))
	fmt.Fprintf(w, "Failed:      %d%s\n", report.FailedCases, percentage(report.FailedCases, report.TotalCases))
	fmt.Fprintf(w, "Duration:    %.2f seconds\n", report.DurationSeconds)
	fmt.Fprintln(w, bar)

	if report.FailedCases > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed Cases:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, res := range report.Results {
			if res.Success {
				continue
			}
			writeFailedCase(w, res)
		}
	}

	if report.PassedCases > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Passed Cases:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, res := range report.Results {
			if res.Success {
				fmt.Fprintf(w, "  [%s] passed in %.2fs\n", res.ID, res.DurationSeconds)
			}
		}
	}

	fmt.Fprintln(w, bar)
}

func writeFailedCase(w io.Writer, res *Result) {
	fmt.Fprintf(w, "\n[%s]", res.ID)
	if res.FilePath != "" {
		fmt.Fprintf(w, " %s", filepath.Base(res.FilePath))
	}
	fmt.Fprintln(w)

	if res.Error != "" {
		fmt.Fprintf(w, "  Reason:   %s\n", res.Error)
	}
	if res.ChatbotResponse != nil {
		fmt.Fprintf(w, "  Response: %q\n", summaryTruncate(*res.ChatbotResponse, 120))
	}

	var failed []metric.Outcome
	for _, m := range res.MetricResults {
		if !m.Success {
			failed = append(failed, m)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(w, "  Failed Metrics:")
		for _, m := range failed {
			detail := m.Reason
			if m.Error != "" {
				detail = m.Error
			}
			if detail == "" {
				detail = "n/a"
			}
			fmt.Fprintf(w, "    - %s: score %s, threshold %.2f (%s)\n", m.Metric, scoreLabel(m.Score), m.Threshold, detail)
		}
	}
}

func percentage(n, total int) string {
	if total == 0 {
		return ""
	}
	return fmt.Sprintf(" (%.1f%%)", float64(n)/float64(total)*100)
}

func summaryTruncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
