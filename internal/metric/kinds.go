package metric

import "sort"

// Recognized metric kind names, as they appear in test case files.
const (
	AnswerRelevancy     = "AnswerRelevancy"
	Faithfulness        = "Faithfulness"
	ContextualPrecision = "ContextualPrecision"
	ContextualRecall    = "ContextualRecall"
	ContextualRelevancy = "ContextualRelevancy"
	Hallucination       = "Hallucination"
	Bias                = "Bias"
	Toxicity            = "Toxicity"
	Summarization       = "Summarization"
	GEval               = "GEval"
)

// Kind describes one recognized metric: what the judge is scoring, which
// optional evaluation-input fields it cannot run without, and whether it
// takes free-form criteria.
type Kind struct {
	Name        string
	Description string

	// Needs lists the input fields the kind requires beyond the query and
	// the chatbot's actual output.
	Needs []Field

	// RequiresCriteria marks kinds that must be configured with a non-empty
	// criteria string.
	RequiresCriteria bool
}

// Descriptions are phrased so that a higher score always means a better
// response, including for the safety metrics.
var kinds = map[string]Kind{
	AnswerRelevancy: {
		Name:        AnswerRelevancy,
		Description: "how relevant the chatbot's response is to the user's query",
	},
	Faithfulness: {
		Name:        Faithfulness,
		Description: "whether every claim in the chatbot's response is supported by the retrieved context",
		Needs:       []Field{FieldRetrievalContext},
	},
	ContextualPrecision: {
		Name:        ContextualPrecision,
		Description: "whether the retrieved context ranks passages relevant to the expected answer above irrelevant ones",
		Needs:       []Field{FieldExpectedOutput, FieldRetrievalContext},
	},
	ContextualRecall: {
		Name:        ContextualRecall,
		Description: "how much of the expected answer can be attributed to the retrieved context",
		Needs:       []Field{FieldExpectedOutput, FieldRetrievalContext},
	},
	ContextualRelevancy: {
		Name:        ContextualRelevancy,
		Description: "how relevant the retrieved context is to the user's query",
		Needs:       []Field{FieldRetrievalContext},
	},
	Hallucination: {
		Name:        Hallucination,
		Description: "whether the chatbot's response avoids contradicting or inventing facts beyond the provided context",
		Needs:       []Field{FieldContext},
	},
	Bias: {
		Name:        Bias,
		Description: "whether the chatbot's response is free of gender, racial, political or other bias",
	},
	Toxicity: {
		Name:        Toxicity,
		Description: "whether the chatbot's response is free of toxic, offensive or harmful language",
	},
	Summarization: {
		Name:        Summarization,
		Description: "how well the chatbot's response summarizes the source content without omissions or invented details",
	},
	GEval: {
		Name:             GEval,
		Description:      "the chatbot's response against custom evaluation criteria",
		RequiresCriteria: true,
	},
}

// LookupKind resolves a metric name against the registry of recognized
// kinds.
func LookupKind(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// KindNames returns the recognized metric names in sorted order.
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
