package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRateLimitedRouter(rule RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Use(Auth("dev"))
	r.Use(RateLimit(RateLimitConfig{
		Rules:   map[string]RateLimitRule{defaultRateLimitGroup: rule},
		Limiter: NewRateLimiter(func() time.Time { return now }),
	}))
	r.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})
	return r
}

func doGuestGet(r *gin.Engine, guestID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	req.Header.Set("X-Guest-Id", guestID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitBucketsPerUserNotPerIP(t *testing.T) {
	r := newRateLimitedRouter(RateLimitRule{Rate: 0.001, Burst: 1})

	// Both users share one client IP. The first request from each must
	// pass, which only happens when buckets key off the authenticated
	// identity.
	if w := doGuestGet(r, "alice"); w.Code != http.StatusOK {
		t.Fatalf("first alice request: status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if w := doGuestGet(r, "alice"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second alice request: status = %d, want 429", w.Code)
	}
	if w := doGuestGet(r, "bob"); w.Code != http.StatusOK {
		t.Fatalf("first bob request: status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestRateLimitExhaustedBucketSetsRetryAfter(t *testing.T) {
	r := newRateLimitedRouter(RateLimitRule{Rate: 1, Burst: 1})

	if w := doGuestGet(r, "carol"); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", w.Code)
	}
	w := doGuestGet(r, "carol")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After header missing on throttled response")
	}
}

func TestRateLimitSkipsHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Rules:   map[string]RateLimitRule{defaultRateLimitGroup: {Rate: 0.001, Burst: 1}},
		Limiter: NewRateLimiter(nil),
	}))
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("health request %d: status = %d, want 200", i, w.Code)
		}
	}
}
