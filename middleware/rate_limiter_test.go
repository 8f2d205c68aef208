package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 5)
	handler := rl.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "request %d within burst should pass", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "request past the burst should be limited")
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	handler := rl.Middleware(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/health", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Same client again has spent its burst.
	again := httptest.NewRequest(http.MethodGet, "/health", nil)
	again.RemoteAddr = "10.0.0.1:5678"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, again)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// A different client gets its own bucket.
	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterUsesForwardedForHeader(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	handler := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "10.0.0.2:1234"
	req2.Header.Set("X-Forwarded-For", "203.0.113.7")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req2)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "forwarded IP should win over the socket address")
}
