package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fablestreet/marketsim/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Timeout:     2 * time.Second,
		MaxTokens:   256,
		Temperature: 0.7,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, srv
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"[{\"ticker\":\"ABC\"}]"},"finish_reason":"stop"}]}`)
	})

	text, err := c.Complete(context.Background(), "simulate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `[{"ticker":"ABC"}]` {
		t.Fatalf("unexpected content: %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[1].Content != "simulate" {
		t.Errorf("prompt must arrive as the user message: %+v", gotBody.Messages)
	}
	if gotBody.Model != "gpt-4o-mini" {
		t.Errorf("unexpected model %q", gotBody.Model)
	}
}

func TestCompleteAPIErrorIsUpstream(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"rate limit","type":"rate_limit_error"}}`)
	})

	_, err := c.Complete(context.Background(), "simulate")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestCompleteEmptyChoicesIsUpstream(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"cmpl-2","choices":[]}`)
	})

	_, err := c.Complete(context.Background(), "simulate")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestCompleteTimeoutIsUpstream(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{}`)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "simulate")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream on timeout, got %v", err)
	}
}
