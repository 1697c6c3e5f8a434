package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/testcase"
)

// DefaultTimeout bounds a single chatbot request unless configured
// otherwise.
const DefaultTimeout = 30 * time.Second

const tracerName = "github.com/STHITAPRAJNAS/chatbot-eval-framework/internal/chatbot"

// Config holds the settings for the HTTP adapter.
type Config struct {
	// Endpoint is the chat endpoint URL. Required.
	Endpoint string

	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// HTTPAdapter talks to a chatbot backend over HTTP.
type HTTPAdapter struct {
	endpoint string
	apiKey   string
	client   *http.Client
	closed   sync.Once
}

// NewHTTP builds an adapter for a remote chatbot endpoint.
func NewHTTP(cfg Config) (*HTTPAdapter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("chatbot endpoint must be provided")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPAdapter{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (a *HTTPAdapter) Respond(ctx context.Context, query string, history []testcase.Message) (*string, []string) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Chatbot.Respond",
		trace.WithAttributes(
			attribute.String("chatbot.endpoint", a.endpoint),
			attribute.Int("chatbot.history_length", len(history)),
		),
	)
	defer span.End()

	body, err := json.Marshal(payload(query, history))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode chatbot request", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failure")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build chatbot request", "endpoint", a.endpoint, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad request")
		return nil, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Chatbot request failed", "endpoint", a.endpoint, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read chatbot response", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failure")
		return nil, nil
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.ErrorContext(ctx, "Chatbot returned an error status",
			"status", resp.StatusCode, "body", truncate(string(raw), 500))
		span.SetStatus(codes.Error, "error status")
		return nil, nil
	}

	text, retrieved := decodeResponse(ctx, raw)
	if text == nil {
		span.SetStatus(codes.Error, "no usable response")
		return nil, nil
	}

	span.SetStatus(codes.Ok, "responded")
	return text, retrieved
}

// decodeResponse parses a response body and applies the extraction rules
// shared by every adapter.
func decodeResponse(ctx context.Context, raw []byte) (*string, []string) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		slog.ErrorContext(ctx, "Failed to decode chatbot response JSON",
			"error", err, "body", truncate(string(raw), 500))
		return nil, nil
	}

	text := extractText(body)
	if text == nil {
		slog.ErrorContext(ctx, "No response text found in chatbot reply",
			"body", truncate(string(raw), 500))
		return nil, nil
	}
	return text, extractContext(body)
}

// Shutdown closes idle connections. Safe to call repeatedly.
func (a *HTTPAdapter) Shutdown() {
	a.closed.Do(func() {
		a.client.CloseIdleConnections()
		slog.Info("Chatbot HTTP adapter shut down", "endpoint", a.endpoint)
	})
}
