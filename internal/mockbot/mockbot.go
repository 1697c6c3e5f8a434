// Package mockbot implements a small chatbot backend for exercising the
// evaluation harness locally. It accepts the harness request payload and
// echoes the query back in one of the response shapes the adapters
// understand.
package mockbot

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Response shapes the mock can speak.
const (
	ShapeFlat  = "flat"  // {"response": "...", "retrieved_context": [...]}
	ShapeChat  = "chat"  // chat-completion style choices
	ShapePlain = "plain" // a bare JSON string
)

// Options configure the mock chatbot.
type Options struct {
	// Shape selects the response encoding. Defaults to ShapeFlat.
	Shape string

	// Context, when set, is returned as retrieved context with every flat
	// reply.
	Context []string
}

// New builds the mock chatbot router: POST /chat answers in the configured
// shape, GET /healthz reports liveness.
func New(opts Options) *mux.Router {
	if opts.Shape == "" {
		opts.Shape = ShapeFlat
	}
	h := &handler{opts: opts}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/chat", h.chat).Methods(http.MethodPost)
	return r
}

type handler struct {
	opts Options
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

type chatRequest struct {
	Input    string `json:"input"`
	Query    string `json:"query"`
	Prompt   string `json:"prompt"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// query picks the question out of the payload, accepting the same key
// variants the adapters send.
func (req *chatRequest) query() string {
	for _, q := range []string{req.Input, req.Query, req.Prompt} {
		if q != "" {
			return q
		}
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	query := req.query()
	if query == "" {
		http.Error(w, "no query found in payload", http.StatusBadRequest)
		return
	}

	reply := "You said: " + query

	w.Header().Set("Content-Type", "application/json")
	switch h.opts.Shape {
	case ShapePlain:
		json.NewEncoder(w).Encode(reply)
	case ShapeChat:
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{
					"index":   0,
					"message": map[string]any{"role": "assistant", "content": reply},
				},
			},
		})
	default:
		body := map[string]any{"response": reply}
		if len(h.opts.Context) > 0 {
			body["retrieved_context"] = h.opts.Context
		}
		json.NewEncoder(w).Encode(body)
	}
}
