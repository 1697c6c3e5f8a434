package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// HandlerAdapter drives an in-process http.Handler through the adapter
// contract. It lets an application be evaluated without binding a port,
// which is how the test-framework integrations exercise handlers directly.
type HandlerAdapter struct {
	handler http.Handler
	path    string
}

// NewHandler wraps handler; path is where its chat route lives, defaulting
// to "/".
func NewHandler(handler http.Handler, path string) *HandlerAdapter {
	if path == "" {
		path = "/"
	}
	return &HandlerAdapter{handler: handler, path: path}
}

func (a *HandlerAdapter) Respond(ctx context.Context, query string, history []testcase.Message) (*string, []string) {
	// In-process handlers are written against this harness, so they get the
	// plain body instead of the multi-key compatibility payload the HTTP
	// adapter sends to arbitrary backends.
	body, err := json.Marshal(map[string]any{
		"input":   query,
		"history": history,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode chatbot request", "error", err)
		return nil, nil
	}

	req := httptest.NewRequest(http.MethodPost, a.path, bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	if panicked := a.serve(ctx, rec, req); panicked {
		return nil, nil
	}

	if rec.Code < 200 || rec.Code >= 300 {
		slog.ErrorContext(ctx, "In-process handler returned an error status",
			"status", rec.Code, "body", truncate(rec.Body.String(), 500))
		return nil, nil
	}

	return decodeResponse(ctx, rec.Body.Bytes())
}

// serve runs the wrapped handler, converting a panic into a logged failure
// so the adapter keeps its no-raise guarantee.
func (a *HandlerAdapter) serve(ctx context.Context, rec *httptest.ResponseRecorder, req *http.Request) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "In-process handler panicked", "panic", r)
			panicked = true
		}
	}()
	a.handler.ServeHTTP(rec, req)
	return false
}

// Shutdown is a no-op; the wrapped handler owns no connections.
func (a *HandlerAdapter) Shutdown() {}
