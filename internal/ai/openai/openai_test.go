package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatCompletion(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Yes, it is \n"}}]}`))
	}))
	defer srv.Close()

	c := New("sk-test", srv.URL+"/")
	out, err := c.CompleteWithSystem(context.Background(), "gpt-4o", "secret is France", "Is it in Europe?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Yes, it is" {
		t.Fatalf("expected trimmed reply, got %q", out)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Is it in Europe?" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.Model != "gpt-4o" {
		t.Fatalf("expected model gpt-4o, got %s", got.Model)
	}
}

func TestTextCompletionFallback(t *testing.T) {
	var got textRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"text":"No"}]}`))
	}))
	defer srv.Close()

	out, err := New("sk-test", srv.URL).CompleteWithSystem(context.Background(), "davinci-002", "", "Is it in Asia?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "No" {
		t.Fatalf("expected No, got %q", out)
	}
	if got.Prompt != "Is it in Asia?" {
		t.Fatalf("empty system prompt should send the question alone, got %q", got.Prompt)
	}
}

func TestErrors(t *testing.T) {
	if _, err := New("", "").CompleteWithSystem(context.Background(), "gpt-4o", "", "q"); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota"}`))
	}))
	defer srv.Close()

	_, err := New("sk-test", srv.URL).CompleteWithSystem(context.Background(), "gpt-4o", "", "q")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	if _, err := New("sk-test", srv.URL).CompleteWithSystem(context.Background(), "gpt-4o", "", "q"); !errors.Is(err, ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}
