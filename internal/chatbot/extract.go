package chatbot

import "strconv"

// Response-text keys, tried in priority order.
var responseKeys = []string{"response", "answer", "text", "output", "completion", "content"}

// Retrieved-context keys, tried in priority order. Only list values count.
var contextKeys = []string{"retrieved_context", "context", "sources", "documents"}

// extractText pulls the response text out of a decoded JSON body. A bare
// JSON string is used as-is; objects are scanned for the recognized keys and
// then for a chat-completion shape. A recognized key holding something other
// than a scalar does not stop the scan. Returns nil when no usable text
// exists.
func extractText(body any) *string {
	switch data := body.(type) {
	case string:
		return &data
	case map[string]any:
		for _, key := range responseKeys {
			value, ok := data[key]
			if !ok {
				continue
			}
			if s, ok := stringify(value); ok {
				return &s
			}
		}
		if s, ok := choiceText(data); ok {
			return &s
		}
	}
	return nil
}

// choiceText handles chat-completion style bodies: choices[0].message.content
// first, then choices[0].text.
func choiceText(data map[string]any) (string, bool) {
	choices, ok := data["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	if message, ok := choice["message"].(map[string]any); ok {
		if s, ok := stringify(message["content"]); ok {
			return s, true
		}
	}
	return stringify(choice["text"])
}

// extractContext pulls retrieved documents out of a decoded JSON body. The
// first recognized key holding a list wins, even when the list is empty.
// Scalar elements are kept, nested values are dropped.
func extractContext(body any) []string {
	data, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range contextKeys {
		list, ok := data[key].([]any)
		if !ok {
			continue
		}
		docs := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := stringify(item); ok {
				docs = append(docs, s)
			}
		}
		return docs
	}
	return nil
}

// stringify accepts the scalar JSON types a backend may put under a
// recognized key.
func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}
