package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	h := Auth("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
}

func TestAuthAcceptsBearerAndHeaderKey(t *testing.T) {
	h := Auth("sekrit")(okHandler())

	bearer := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	bearer.Header.Set("Authorization", "Bearer sekrit")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, bearer)
	if rr.Code != http.StatusOK {
		t.Fatalf("bearer status=%d want 200", rr.Code)
	}

	apiKey := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	apiKey.Header.Set("X-API-Key", "sekrit")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, apiKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("x-api-key status=%d want 200", rr.Code)
	}
}

func TestAuthRejectsMissingAndWrongToken(t *testing.T) {
	h := Auth("sekrit")(okHandler())

	missing := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, missing)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status=%d want 401", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got != `Bearer realm="api"` {
		t.Fatalf("WWW-Authenticate=%q", got)
	}

	wrong := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	wrong.Header.Set("Authorization", "Bearer nope")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, wrong)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status=%d want 401", rr.Code)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := RequestID()(inner)

	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	echoed := rr.Header().Get(RequestIDHeader)
	if echoed == "" || seen == "" || echoed != seen {
		t.Fatalf("request id not propagated: header=%q ctx=%q", echoed, seen)
	}
}

func TestRequestIDReusesProxyHeader(t *testing.T) {
	h := RequestID()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "upstream-42" {
		t.Fatalf("request id=%q want upstream-42", got)
	}
}
