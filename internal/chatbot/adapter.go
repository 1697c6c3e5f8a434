// Package chatbot connects the evaluation pipeline to the system under
// test. Every backend is reached through the Adapter contract so the
// pipeline never cares whether it talks to a remote API or an in-process
// handler.
package chatbot

import (
	"context"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// Adapter is the uniform surface for a chatbot backend under test.
//
// Respond returns the backend's response text together with any retrieved
// context documents it exposed. Both returns are nil when the backend could
// not produce a usable response; transport and protocol failures are logged,
// never raised, so one flaky call cannot abort a batch.
//
// Shutdown releases held connections. Calling it more than once is safe.
type Adapter interface {
	Respond(ctx context.Context, query string, history []testcase.Message) (*string, []string)
	Shutdown()
}

// payload builds the outbound request body. The query travels under several
// commonly used key names so one adapter works against differently shaped
// backends; messages carries the full turn list ending with the current
// user query, and history carries only the prior turns.
func payload(query string, history []testcase.Message) map[string]any {
	messages := make([]testcase.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, testcase.Message{Role: testcase.RoleUser, Content: query})

	return map[string]any{
		"input":    query,
		"query":    query,
		"prompt":   query,
		"messages": messages,
		"history":  history,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
