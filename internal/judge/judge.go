// Package judge scores evaluation inputs by asking an LLM for a verdict. It
// implements the evaluator contract the metric factory assembles against.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/metric"
	"github.com/openai/openai-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultModel is used when neither the metric spec nor the run configures
// an evaluation model.
const DefaultModel = openai.ChatModelGPT4o

const tracerName = "github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/judge"

// Evaluator is one configured metric backed by the LLM judge.
type Evaluator struct {
	cfg    metric.Resolved
	client openai.Client
	model  openai.ChatModel
}

// New builds a judge-backed evaluator for the given metric kind. It fails
// when no OpenAI credentials are available, which the metric factory treats
// as a per-spec construction failure rather than a fatal error.
func New(kind metric.Kind, cfg metric.Resolved) (*Evaluator, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	model := DefaultModel
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}

	return &Evaluator{cfg: cfg, client: openai.NewClient(), model: model}, nil
}

func (e *Evaluator) Name() string { return e.cfg.Kind.Name }

func (e *Evaluator) Threshold() float64 { return e.cfg.Threshold }

func (e *Evaluator) Async() bool { return e.cfg.Async }

// Measure asks the judge model for a verdict on one exchange. Every failure
// mode is reported through the outcome's Error field so the engine can keep
// running the other metrics.
func (e *Evaluator) Measure(ctx context.Context, in metric.Input) metric.Outcome {
	if missing := in.Missing(e.cfg.Kind.Needs); len(missing) > 0 {
		return e.errorOutcome(fmt.Sprintf("missing required fields: %s", joinFields(missing)))
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Judge.Measure",
		trace.WithAttributes(
			attribute.String("metric.name", e.Name()),
			attribute.String("judge.model", string(e.model)),
		),
	)
	defer span.End()

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(e.cfg)),
			openai.UserMessage(userPrompt(in)),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge call failed")
		return e.errorOutcome(fmt.Sprintf("llm judge call failed: %v", err))
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "empty completion")
		return e.errorOutcome("no response from llm judge")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable verdict")
		return e.errorOutcome(err.Error())
	}

	score := clamp(verdict.Score, 0, 10) / 10
	outcome := metric.Outcome{
		Metric:    e.Name(),
		Score:     &score,
		Threshold: e.cfg.Threshold,
		Success:   score >= e.cfg.Threshold,
	}
	if e.cfg.IncludeReason {
		outcome.Reason = verdict.Reason
	}

	span.SetAttributes(
		attribute.Float64("metric.score", score),
		attribute.Bool("metric.success", outcome.Success),
	)
	span.SetStatus(codes.Ok, "measured")
	return outcome
}

func (e *Evaluator) errorOutcome(reason string) metric.Outcome {
	return metric.Outcome{
		Metric:    e.Name(),
		Threshold: e.cfg.Threshold,
		Success:   false,
		Error:     reason,
	}
}

type verdict struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// parseVerdict extracts the JSON verdict from the judge's reply, tolerating
// prose or code fences around the object.
func parseVerdict(content string) (*verdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON verdict found in judge response: %s", truncate(content, 200))
	}

	var v verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("failed to parse judge verdict: %v", err)
	}
	return &v, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func joinFields(fields []metric.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
