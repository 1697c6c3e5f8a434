// Package engine runs assembled metric evaluators over canonical evaluation
// inputs.
package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/metric"
)

// CaseResult is the engine's verdict for one submitted input. Success is the
// conjunction of every outcome's success, vacuously true with no metrics.
type CaseResult struct {
	Success  bool
	Outcomes []metric.Outcome
}

// Engine evaluates inputs against a fixed set of metric evaluators and
// returns one CaseResult per input, in input order.
type Engine interface {
	Evaluate(ctx context.Context, inputs []metric.Input, evaluators []metric.Evaluator) ([]CaseResult, error)
}

// Local runs evaluators in process. Evaluators that opted into async mode
// run concurrently within a case; the rest run sequentially on the calling
// goroutine. Outcomes always keep evaluator order, whatever mix ran.
type Local struct {
	// MaxConcurrent caps concurrent async evaluators per case. Zero means
	// no cap.
	MaxConcurrent int
}

func (l *Local) Evaluate(ctx context.Context, inputs []metric.Input, evaluators []metric.Evaluator) ([]CaseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]CaseResult, 0, len(inputs))
	for _, in := range inputs {
		outcomes := make([]metric.Outcome, len(evaluators))

		g, gctx := errgroup.WithContext(ctx)
		if l.MaxConcurrent > 0 {
			g.SetLimit(l.MaxConcurrent)
		}
		for i, ev := range evaluators {
			if !ev.Async() {
				continue
			}
			g.Go(func() error {
				outcomes[i] = ev.Measure(gctx, in)
				return nil
			})
		}
		for i, ev := range evaluators {
			if ev.Async() {
				continue
			}
			outcomes[i] = ev.Measure(ctx, in)
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		success := true
		for _, o := range outcomes {
			if !o.Success {
				success = false
				break
			}
		}
		results = append(results, CaseResult{Success: success, Outcomes: outcomes})
	}

	return results, nil
}
