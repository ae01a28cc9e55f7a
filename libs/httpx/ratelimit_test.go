package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/bookings", nil)
	req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
	return req
}

func TestRateLimiterInMemory(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute, nil)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, requestFrom("1.2.3.4"))
		if rw.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rw.Code)
		}
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, requestFrom("1.2.3.4"))
	if rw.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rw.Code)
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, requestFrom("5.6.7.8"))
	if rw.Code != http.StatusOK {
		t.Fatalf("other client must have its own bucket, got %d", rw.Code)
	}

	now = now.Add(2 * time.Minute)
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, requestFrom("1.2.3.4"))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected window reset, got %d", rw.Code)
	}
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rl := NewRedisRateLimiter(rdb, 1, time.Minute, "test", nil)
	h := rl.Middleware(nil, false)(okHandler())

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, requestFrom("1.2.3.4"))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, requestFrom("1.2.3.4"))
	if rw.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rw.Code)
	}
	if rw.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rw.Header().Get("Retry-After"))
	}
	if !mr.Exists("test:1.2.3.4") {
		t.Fatal("expected counter key in redis")
	}

	mr.FastForward(2 * time.Minute)
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, requestFrom("1.2.3.4"))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected window reset after expiry, got %d", rw.Code)
	}
}

func TestRedisRateLimiterFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	open := NewRedisRateLimiter(rdb, 1, time.Minute, "test", nil).Middleware(nil, true)(okHandler())
	rw := httptest.NewRecorder()
	open.ServeHTTP(rw, requestFrom("1.2.3.4"))
	if rw.Code != http.StatusOK {
		t.Fatalf("fail-open limiter must serve, got %d", rw.Code)
	}

	closed := NewRedisRateLimiter(rdb, 1, time.Minute, "test", nil).Middleware(nil, false)(okHandler())
	rw = httptest.NewRecorder()
	closed.ServeHTTP(rw, requestFrom("1.2.3.4"))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("fail-closed limiter must refuse, got %d", rw.Code)
	}
}
