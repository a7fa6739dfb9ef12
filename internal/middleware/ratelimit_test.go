package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	defer rl.Stop()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if ok, _ := rl.allow("a", now); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, retry := rl.allow("a", now)
	if ok {
		t.Error("4th request should be rate-limited")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("retry = %v, want within (0, 1s]", retry)
	}
	if ok, _ := rl.allow("b", now); !ok {
		t.Error("different key should be allowed")
	}

	if ok, _ := rl.allow("a", now.Add(1100*time.Millisecond)); !ok {
		t.Error("should be allowed after the window passes")
	}
}

func TestRateLimiterMiddlewareKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(creator string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/editor", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		if creator != "" {
			req = req.WithContext(WithCreator(req.Context(), creator))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(""); rr.Code != http.StatusOK {
		t.Fatalf("anonymous first: %d", rr.Code)
	}
	rr := send("")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("anonymous second: got %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Same IP, but authenticated creators have their own budgets.
	if rr := send("u1"); rr.Code != http.StatusOK {
		t.Errorf("creator u1: got %d", rr.Code)
	}
	if rr := send("u2"); rr.Code != http.StatusOK {
		t.Errorf("creator u2: got %d", rr.Code)
	}
	if rr := send("u1"); rr.Code != http.StatusTooManyRequests {
		t.Errorf("creator u1 again: got %d, want 429", rr.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"x-forwarded-for single", "10.0.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"x-forwarded-for multiple", "10.0.0.1, 172.16.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"x-real-ip", "", "10.0.0.2", "192.168.1.1:1234", "10.0.0.2"},
		{"remote addr only", "", "", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr no port", "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, time.Second)
	defer rl.Stop()
	now := time.Now()

	rl.allow("old", now)
	rl.allow("fresh", now)
	rl.allow("fresh", now.Add(1500*time.Millisecond))

	rl.cleanup(now.Add(2 * time.Second))

	rl.mu.RLock()
	_, oldExists := rl.clients["old"]
	_, freshExists := rl.clients["fresh"]
	rl.mu.RUnlock()

	if oldExists {
		t.Error("old should have been cleaned up")
	}
	if !freshExists {
		t.Error("fresh should still exist")
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}
