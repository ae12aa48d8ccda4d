package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/fitwatch/internal/model"
)

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func okChatResponse(content string) chatResponse {
	var c chatChoice
	c.Message.Content = content
	return chatResponse{Choices: []chatChoice{c}}
}

func TestOpenAIComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, okChatResponse(`{"analyses":[]}`))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0, client)
	got, err := provider.Complete(context.Background(), "score these")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"analyses":[]}` {
		t.Errorf("got %q, want json string", got)
	}
}

func TestOpenAIComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0, client)
	_, err := provider.Complete(context.Background(), "score these")
	if err == nil {
		t.Fatal("expected error on 5xx response")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected *model.HTTPError with 500, got %v", err)
	}
}

func TestOpenAIComplete_RateLimited(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0, client)
	_, err := provider.Complete(context.Background(), "score these")
	if err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestOpenAIComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{Choices: nil})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0, client)
	_, err := provider.Complete(context.Background(), "score these")
	if err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestOpenAIComplete_ErrorField(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{Error: &apiError{Message: "bad key", Type: "auth"}})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", 0, client)
	if _, err := provider.Complete(context.Background(), "score these"); err == nil {
		t.Fatal("expected error when response carries an error object")
	}
}

func TestOpenAIComplete_RequestShape(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(okChatResponse(`{}`))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "my-secret-key", "gpt-test", 2500, srv.Client())
	if _, err := provider.Complete(context.Background(), "the prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Model != "gpt-test" || gotReq.MaxTokens != 2500 {
		t.Errorf("unexpected model/max_tokens: %q/%d", gotReq.Model, gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[1].Content != "the prompt" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
	if gotReq.ResponseFormat.Type != "json_schema" || !gotReq.ResponseFormat.JSONSchema.Strict {
		t.Errorf("expected strict json_schema response format, got %+v", gotReq.ResponseFormat)
	}
}

func TestOpenAIComplete_DefaultMaxTokens(t *testing.T) {
	p := NewOpenAIProvider("http://x", "k", "m", 0, http.DefaultClient)
	if p.maxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", p.maxTokens, DefaultMaxTokens)
	}
}
