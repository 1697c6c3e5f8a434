package metric

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
	"github.com/mitchellh/mapstructure"
)

// DefaultThreshold applies to any metric whose spec does not set one.
const DefaultThreshold = 0.5

// Config is the typed configuration every metric kind accepts. Pointer
// fields distinguish "unset" from an explicit zero so the layered defaults
// can tell them apart. Keys a spec sets beyond these are ignored.
type Config struct {
	Threshold       *float64 `json:"threshold"`
	AsyncMode       *bool    `json:"async_mode"`
	StrictMode      bool     `json:"strict_mode"`
	IncludeReason   *bool    `json:"include_reason"`
	Criteria        string   `json:"criteria"`
	EvaluationSteps []string `json:"evaluation_steps"`
}

// Resolved is the final constructor argument set for one metric after the
// layered defaults are applied.
type Resolved struct {
	Kind          Kind
	Threshold     float64
	Model         string // empty means the judge picks its default
	Async         bool
	Strict        bool
	IncludeReason bool

	// GEval configuration.
	Criteria        string
	EvaluationSteps []string
}

// Constructor builds an evaluator from a resolved configuration.
type Constructor func(kind Kind, cfg Resolved) (Evaluator, error)

// FactoryOptions configure metric assembly for a run.
type FactoryOptions struct {
	// Model is the run-wide evaluation model: either a model name string or
	// a structured map carrying a "model" key. Metric-level model settings
	// take priority over it.
	Model any

	// RunAsync seeds async_mode for specs that leave it unset.
	RunAsync bool

	// New constructs an evaluator once a spec is resolved.
	New Constructor
}

// Factory turns declarative metric specs into evaluator instances. Specs
// that cannot be honored are skipped with a log entry; the factory never
// fails a whole case because one metric could not be built.
type Factory struct {
	model    string
	runAsync bool
	newEval  Constructor
}

func NewFactory(opts FactoryOptions) *Factory {
	model := ""
	if !unsetModel(opts.Model) {
		resolved, ok := ResolveModel(opts.Model)
		if !ok {
			// A broken run-wide model falls back to the judge default so a
			// config typo does not wipe out every metric of the run.
			slog.Warn("Ignoring unusable run-wide evaluation model", "model", opts.Model)
		}
		model = resolved
	}
	return &Factory{model: model, runAsync: opts.RunAsync, newEval: opts.New}
}

// Build resolves each spec in order and returns the evaluators that could be
// constructed. The returned slice preserves spec order and may be shorter
// than the input.
func (f *Factory) Build(ctx context.Context, specs []testcase.MetricSpec) []Evaluator {
	if f.newEval == nil {
		slog.ErrorContext(ctx, "No evaluator constructor configured")
		return nil
	}

	evaluators := make([]Evaluator, 0, len(specs))
	for _, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			slog.WarnContext(ctx, "Skipping metric spec with no name", "config", spec.Config)
			continue
		}

		kind, ok := LookupKind(spec.Name)
		if !ok {
			slog.WarnContext(ctx, "Skipping unrecognized metric", "name", spec.Name)
			continue
		}

		resolved, err := f.resolve(ctx, kind, spec.Config)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping metric with unusable configuration", "name", spec.Name, "error", err)
			continue
		}

		ev, err := f.newEval(kind, *resolved)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping metric that failed to construct", "name", spec.Name, "error", err)
			continue
		}
		evaluators = append(evaluators, ev)
	}

	slog.InfoContext(ctx, "Instantiated metrics", "requested", len(specs), "built", len(evaluators))
	return evaluators
}

func (f *Factory) resolve(ctx context.Context, kind Kind, raw map[string]any) (*Resolved, error) {
	var cfg Config
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(stripModelKey(raw)); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(md.Unused) > 0 {
		slog.DebugContext(ctx, "Ignoring unrecognized metric configuration keys", "metric", kind.Name, "keys", md.Unused)
	}

	res := &Resolved{
		Kind:          kind,
		Threshold:     DefaultThreshold,
		Model:         f.model,
		Async:         f.runAsync,
		Strict:        cfg.StrictMode,
		IncludeReason: true,

		Criteria:        cfg.Criteria,
		EvaluationSteps: cfg.EvaluationSteps,
	}
	if cfg.Threshold != nil {
		res.Threshold = *cfg.Threshold
	}
	if cfg.AsyncMode != nil {
		res.Async = *cfg.AsyncMode
	}
	if cfg.IncludeReason != nil {
		res.IncludeReason = *cfg.IncludeReason
	}
	if cfg.StrictMode {
		// Strict scoring passes only a perfect score.
		res.Threshold = 1.0
	}

	if setting, ok := raw["model"]; ok && !unsetModel(setting) {
		// Unlike the run-wide model, a metric-level model that cannot be
		// resolved fails the spec: the author asked for something specific
		// and silently judging with another model would be misleading.
		model, ok := ResolveModel(setting)
		if !ok {
			return nil, fmt.Errorf("unusable model setting: %v", setting)
		}
		res.Model = model
	}

	if kind.RequiresCriteria && strings.TrimSpace(res.Criteria) == "" {
		return nil, fmt.Errorf("%s requires a non-empty criteria string", kind.Name)
	}

	return res, nil
}

func stripModelKey(raw map[string]any) map[string]any {
	if _, ok := raw["model"]; !ok {
		return raw
	}
	stripped := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "model" {
			continue
		}
		stripped[k] = v
	}
	return stripped
}

// ResolveModel extracts a model identifier from a model setting. A string is
// used verbatim. A structured map contributes its "model" entry; the rest of
// the map (provider type, region and so on) is inert for now.
func ResolveModel(setting any) (string, bool) {
	switch v := setting.(type) {
	case string:
		return v, v != ""
	case map[string]any:
		name, ok := v["model"].(string)
		return name, ok && name != ""
	default:
		return "", false
	}
}

// unsetModel reports whether a model setting counts as "not configured":
// nil, an empty string or an empty map.
func unsetModel(setting any) bool {
	switch v := setting.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	}
	return false
}
