package judge

import (
	"fmt"
	"strings"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/metric"
)

// systemPrompt instructs the judge for one metric kind. The judge must reply
// with a bare JSON verdict so parsing stays trivial.
func systemPrompt(cfg metric.Resolved) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an impartial evaluator assessing %s.\n\n", cfg.Kind.Description)

	if cfg.Kind.Name == metric.GEval {
		fmt.Fprintf(&b, "Evaluation criteria:\n%s\n\n", cfg.Criteria)
		if len(cfg.EvaluationSteps) > 0 {
			b.WriteString("Follow these evaluation steps in order:\n")
			for i, step := range cfg.EvaluationSteps {
				fmt.Fprintf(&b, "%d. %s\n", i+1, step)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("Score the exchange from 0 to 10, where 10 means the criteria are fully satisfied and 0 means they are not satisfied at all.\n")
	if cfg.Strict {
		b.WriteString("Be strict: award 10 only when the response is flawless, otherwise award 0.\n")
	}

	b.WriteString("\nRespond with ONLY a valid JSON object in this EXACT format (no extra text):\n")
	if cfg.IncludeReason {
		b.WriteString(`{"score": <number 0-10>, "reason": "<one or two sentence justification>"}`)
	} else {
		b.WriteString(`{"score": <number 0-10>}`)
	}
	return b.String()
}

// userPrompt lays out the exchange under evaluation plus whatever ground
// truth the test case carries.
func userPrompt(in metric.Input) string {
	var b strings.Builder

	if len(in.History) > 0 {
		b.WriteString("Conversation history:\n")
		for _, m := range in.History {
			fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User query:\n%s\n\n", in.Query)
	fmt.Fprintf(&b, "Chatbot response:\n%s\n", in.ActualOutput)

	if in.ExpectedOutput != "" {
		fmt.Fprintf(&b, "\nExpected response:\n%s\n", in.ExpectedOutput)
	}
	if len(in.Context) > 0 {
		fmt.Fprintf(&b, "\nGround-truth context:\n%s\n", bulleted(in.Context))
	}
	if docs := retrievalDocs(in); len(docs) > 0 {
		fmt.Fprintf(&b, "\nRetrieved context:\n%s\n", bulleted(docs))
	}

	b.WriteString("\nProvide your verdict as JSON.")
	return b.String()
}

// retrievalDocs prefers the author-supplied retrieval context over whatever
// the chatbot reported retrieving.
func retrievalDocs(in metric.Input) []string {
	if len(in.RetrievalContext) > 0 {
		return in.RetrievalContext
	}
	return in.RetrievedContext
}

func bulleted(items []string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}
