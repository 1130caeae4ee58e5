package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1756684800,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse(`[{"title":"a"}]`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, nil)

	got, err := o.Generate(context.Background(), "schedule my week")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != `[{"title":"a"}]` {
		t.Errorf("got %q", got)
	}
	if !strings.HasSuffix(gotPath, "/chat/completions") {
		t.Errorf("request path = %q, want chat/completions", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "bad", BaseURL: srv.URL, Model: "test-model"}, nil)

	if _, err := o.Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected an error from the API")
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("late"))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 20 * time.Millisecond,
	}, nil)

	if _, err := o.Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected a timeout error")
	}
}
