package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitThrottlesPerIP(t *testing.T) {
	limited := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/parameters", nil)
		req.RemoteAddr = "198.51.100.11:2222"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected request %d to pass, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/parameters", nil)
	req.RemoteAddr = "198.51.100.11:2222"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be throttled, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on throttled response")
	}
}

func TestRateLimitSeparatesClients(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/parameters", nil)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first client to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/parameters", nil)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusNoContent {
		t.Fatalf("expected second client to pass, got %d", secondRec.Code)
	}
}

func TestRateLimitKeysOnForwardedClient(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	behindProxy := func(clientIP string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/parameters", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		req.Header.Set("X-Forwarded-For", clientIP)
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := behindProxy("203.0.113.5"); code != http.StatusNoContent {
		t.Fatalf("expected first forwarded client to pass, got %d", code)
	}
	if code := behindProxy("203.0.113.6"); code != http.StatusNoContent {
		t.Fatalf("expected second forwarded client its own bucket, got %d", code)
	}
	if code := behindProxy("203.0.113.5"); code != http.StatusTooManyRequests {
		t.Fatalf("expected repeat forwarded client to be throttled, got %d", code)
	}
}

func TestRateLimitDisabledWhenLimitZero(t *testing.T) {
	limited := RateLimit(0, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/parameters", nil)
		req.RemoteAddr = "198.51.100.11:2222"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected request %d to pass, got %d", i+1, rec.Code)
		}
	}
}
