// Package eval drives the end-to-end evaluation of chatbot test cases:
// normalize the case, obtain the chatbot's response, assemble the metric
// plan, run the engine and aggregate the verdict into structured results.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/chatbot"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/engine"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/judge"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/metric"
	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

const tracerName = "github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/eval"

// Options configure a Pipeline. The zero value yields a judge-backed
// pipeline running metrics sequentially with the judge's default model.
type Options struct {
	// Model is the run-wide evaluation model: a model name string or a
	// structured map carrying a "model" key. Metric-level settings override
	// it.
	Model any

	// RunAsync seeds async_mode for metric specs that leave it unset.
	RunAsync bool

	// MaxConcurrent caps concurrent async metrics per case in the default
	// engine. Zero means no cap.
	MaxConcurrent int

	// Engine replaces the in-process default engine.
	Engine engine.Engine

	// Factory replaces the judge-backed metric factory.
	Factory *metric.Factory
}

// Pipeline evaluates test cases against one chatbot adapter.
type Pipeline struct {
	adapter chatbot.Adapter
	factory *metric.Factory
	engine  engine.Engine
}

// New assembles a pipeline around the given chatbot adapter.
func New(adapter chatbot.Adapter, opts Options) *Pipeline {
	factory := opts.Factory
	if factory == nil {
		factory = metric.NewFactory(metric.FactoryOptions{
			Model:    opts.Model,
			RunAsync: opts.RunAsync,
			New: func(kind metric.Kind, cfg metric.Resolved) (metric.Evaluator, error) {
				return judge.New(kind, cfg)
			},
		})
	}

	eng := opts.Engine
	if eng == nil {
		eng = &engine.Local{MaxConcurrent: opts.MaxConcurrent}
	}

	return &Pipeline{adapter: adapter, factory: factory, engine: eng}
}

// EvaluateCase runs one test case through the full pipeline. Every failure
// mode, including a panic, is converted into a Result carrying an error
// message; EvaluateCase never aborts a batch.
func (p *Pipeline) EvaluateCase(ctx context.Context, tc *testcase.TestCase) (res *Result) {
	start := time.Now()
	res = &Result{ID: tc.ID, FilePath: tc.FilePath, TestCase: tc}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Pipeline.EvaluateCase",
		trace.WithAttributes(
			attribute.String("case.id", tc.ID),
			attribute.Int("case.metric_count", len(tc.Metrics)),
		),
	)

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("unexpected evaluation error: %v", r)
			slog.ErrorContext(ctx, "Recovered from panic during evaluation", "id", tc.ID, "panic", r)
		}
		res.DurationSeconds = time.Since(start).Seconds()
		span.SetAttributes(attribute.Bool("case.success", res.Success))
		if res.Error != "" {
			span.SetStatus(codes.Error, res.Error)
		} else {
			span.SetStatus(codes.Ok, "evaluated")
		}
		span.End()
	}()

	slog.InfoContext(ctx, "Starting evaluation", "id", tc.ID, "file", tc.FilePath)

	req, err := Normalize(tc)
	if err != nil {
		res.Error = err.Error()
		slog.ErrorContext(ctx, "Test case failed normalization", "id", tc.ID, "error", err)
		return res
	}

	if len(tc.Metrics) == 0 {
		res.Error = "no metrics defined in the test case"
		slog.ErrorContext(ctx, "Test case declares no metrics", "id", tc.ID)
		return res
	}

	text, retrieved := p.adapter.Respond(ctx, req.Query, req.History)
	res.ChatbotResponse = text
	res.RetrievedContext = retrieved
	if text == nil {
		res.Error = "no response from chatbot"
		slog.ErrorContext(ctx, "Chatbot produced no usable response", "id", tc.ID)
		return res
	}

	in := metric.Input{
		Query:            req.Query,
		History:          req.History,
		ActualOutput:     *text,
		ExpectedOutput:   req.ExpectedOutput,
		Context:          req.Context,
		RetrievalContext: req.RetrievalContext,
		RetrievedContext: retrieved,
	}

	evaluators := p.factory.Build(ctx, tc.Metrics)
	if len(evaluators) == 0 {
		res.Error = "failed to instantiate any metrics from the configuration"
		slog.ErrorContext(ctx, "No metrics could be instantiated", "id", tc.ID)
		return res
	}

	caseResults, err := p.engine.Evaluate(ctx, []metric.Input{in}, evaluators)
	if err != nil {
		res.Error = fmt.Sprintf("evaluation engine failed: %v", err)
		slog.ErrorContext(ctx, "Engine invocation failed", "id", tc.ID, "error", err)
		return res
	}
	if len(caseResults) == 0 {
		res.Error = "evaluation engine returned no results"
		slog.ErrorContext(ctx, "Engine returned no results", "id", tc.ID)
		return res
	}
	if len(caseResults) != 1 {
		res.Error = fmt.Sprintf("evaluation engine returned %d results for a single case", len(caseResults))
		slog.ErrorContext(ctx, "Engine returned an unexpected result count", "id", tc.ID, "count", len(caseResults))
		return res
	}

	verdict := caseResults[0]
	res.MetricResults = verdict.Outcomes
	res.Success = verdict.Success

	for _, outcome := range verdict.Outcomes {
		level := slog.LevelInfo
		if !outcome.Success {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Metric measured",
			"id", tc.ID,
			"metric", outcome.Metric,
			"score", scoreLabel(outcome.Score),
			"threshold", outcome.Threshold,
			"success", outcome.Success)
	}

	if !res.Success {
		var failed []string
		for _, outcome := range verdict.Outcomes {
			if !outcome.Success {
				failed = append(failed, outcome.Metric)
			}
		}
		res.Error = "one or more metrics failed: " + strings.Join(failed, ", ")
	}

	return res
}

// Run evaluates the batch sequentially and aggregates a report, one result
// per case in input order. A failing case never stops the cases after it.
func (p *Pipeline) Run(ctx context.Context, cases []*testcase.TestCase) *Report {
	report := &Report{
		RunID:      uuid.NewString(),
		StartTime:  time.Now(),
		TotalCases: len(cases),
		Results:    make([]*Result, 0, len(cases)),
	}

	slog.InfoContext(ctx, "Starting evaluation run", "run_id", report.RunID, "total_cases", len(cases))

	for i, tc := range cases {
		slog.InfoContext(ctx, "Running test case", "id", tc.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(cases)))

		res := p.evaluateIsolated(ctx, tc)
		report.Results = append(report.Results, res)
		if res.Success {
			report.PassedCases++
		} else {
			report.FailedCases++
		}

		slog.InfoContext(ctx, "Finished test case",
			"id", tc.ID, "success", res.Success, "duration_seconds", res.DurationSeconds)
	}

	report.EndTime = time.Now()
	report.DurationSeconds = report.EndTime.Sub(report.StartTime).Seconds()

	slog.InfoContext(ctx, "Evaluation run completed",
		"run_id", report.RunID,
		"total", report.TotalCases,
		"passed", report.PassedCases,
		"failed", report.FailedCases,
		"duration_seconds", report.DurationSeconds)

	return report
}

// evaluateIsolated guards the batch loop against anything EvaluateCase's own
// recovery might miss, such as a panic while building the result.
func (p *Pipeline) evaluateIsolated(ctx context.Context, tc *testcase.TestCase) *Result {
	return guardCase(ctx, tc, func() *Result {
		return p.EvaluateCase(ctx, tc)
	})
}

// guardCase converts a panic escaping evaluate into a failing result. Like
// every other terminal path, the synthesized result carries the wall-clock
// duration up to the failure.
func guardCase(ctx context.Context, tc *testcase.TestCase, evaluate func() *Result) (res *Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Critical error during evaluation", "id", tc.ID, "panic", r)
			res = &Result{
				ID:              tc.ID,
				FilePath:        tc.FilePath,
				TestCase:        tc,
				Error:           fmt.Sprintf("critical evaluation error: %v", r),
				DurationSeconds: time.Since(start).Seconds(),
			}
		}
	}()
	return evaluate()
}

func scoreLabel(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*score, 'f', 4, 64)
}
