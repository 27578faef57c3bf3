package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSender struct {
	name  string
	err   error
	calls int
}

func (s *stubSender) Send(ctx context.Context, title, message string) error {
	s.calls++
	return s.err
}

func (s *stubSender) Name() string { return s.name }

func TestNotifyHonorsEventFilter(t *testing.T) {
	s := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{s}, []string{EventFallback}, testLogger())

	if err := n.Notify(context.Background(), EventUpstream, "t", "m"); err != nil {
		t.Fatalf("filtered notify: %v", err)
	}
	if s.calls != 0 {
		t.Fatalf("filtered event delivered %d times", s.calls)
	}

	if err := n.Notify(context.Background(), EventFallback, "t", "m"); err != nil {
		t.Fatalf("allowed notify: %v", err)
	}
	if s.calls != 1 {
		t.Fatalf("calls=%d want 1", s.calls)
	}
}

func TestNotifyEmptyFilterAdmitsAll(t *testing.T) {
	s := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	for _, event := range []string{EventFallback, EventUpstream, EventEconShift} {
		if err := n.Notify(context.Background(), event, "t", "m"); err != nil {
			t.Fatalf("notify %s: %v", event, err)
		}
	}
	if s.calls != 3 {
		t.Fatalf("calls=%d want 3", s.calls)
	}
}

func TestNotifyCollectsSenderFailures(t *testing.T) {
	bad := &stubSender{name: "bad", err: errors.New("boom")}
	good := &stubSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), EventFallback, "t", "m")
	if err == nil {
		t.Fatal("expected error from failing sender")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Fatalf("error %q does not name the failed sender", err)
	}
	if good.calls != 1 {
		t.Fatalf("good sender calls=%d want 1", good.calls)
	}
}

func TestDiscordSenderPostsMarkdown(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), "Alert", "details"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["content"] != "**Alert**\ndetails" {
		t.Fatalf("content=%q", got["content"])
	}
}

func TestPostJSONSurfacesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := postJSON(context.Background(), srv.Client(), "discord", srv.URL, map[string]string{"content": "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error=%q", err)
	}
}
