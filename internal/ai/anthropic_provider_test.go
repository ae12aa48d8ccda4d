package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicComplete_Success(t *testing.T) {
	var gotKey, gotVersion, gotPath string
	var gotReq messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(`{"content":[{"type":"text","text":"[{\"overall_fit\":"},{"type":"text","text":"50}]"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(srv.URL, "ak", "claude-test", 0, srv.Client())
	got, err := p.Complete(context.Background(), "prompt body")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `[{"overall_fit":50}]` {
		t.Errorf("got %q", got)
	}
	if gotKey != "ak" || gotVersion != anthropicVersion || gotPath != "/messages" {
		t.Errorf("unexpected headers/path: key=%q version=%q path=%q", gotKey, gotVersion, gotPath)
	}
	if gotReq.Model != "claude-test" || gotReq.MaxTokens != DefaultMaxTokens || gotReq.System == "" {
		t.Errorf("unexpected request: %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" || gotReq.Messages[0].Content != "prompt body" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestAnthropicComplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http 529", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`},
		{"error object", http.StatusOK, `{"error":{"type":"invalid_request_error","message":"bad"}}`},
		{"no text", http.StatusOK, `{"content":[],"stop_reason":"max_tokens"}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewAnthropicProvider(srv.URL, "ak", "m", 100, srv.Client())
			if _, err := p.Complete(context.Background(), "x"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
