package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/sharebook/libs/auth"
	"github.com/md-rashed-zaman/sharebook/libs/httpx"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/handlers"
)

func newTestMux() *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	registerRoutes(mux, routeDeps{
		public:    handlers.NewPublicHandler(nil, nil, nil, logger, handlers.PublicConfig{}),
		admin:     handlers.NewAdminHandler(nil, logger),
		verifier:  auth.Verifier{Secret: "secret"},
		rateLimit: httpx.NewRateLimiter(1, time.Minute, nil).Middleware(),
		metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})
	return mux
}

func TestStaffRoutesRequireAuth(t *testing.T) {
	mux := newTestMux()
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/bookings?date=2026-03-02"},
		{http.MethodPost, "/api/v1/bookings/archive"},
		{http.MethodPost, "/api/v1/share-tokens"},
		{http.MethodPost, "/api/v1/share-tokens/revoke"},
	} {
		rw := httptest.NewRecorder()
		mux.ServeHTTP(rw, httptest.NewRequest(route.method, route.path, nil))
		if rw.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, rw.Code)
		}
	}
}

func TestStaffRoleIsEnforced(t *testing.T) {
	mux := newTestMux()
	token, err := auth.SignHS256(auth.Claims{Sub: "u", BusinessID: "biz-1", Role: "staff"}, "secret")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/share-tokens", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff issuing tokens, got %d", rw.Code)
	}
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	mux := newTestMux()
	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/bookings", strings.NewReader("not json"))
		rw := httptest.NewRecorder()
		mux.ServeHTTP(rw, req)
		return rw.Code
	}
	if code := post(); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", code)
	}
}

func TestMethodMismatch(t *testing.T) {
	rw := httptest.NewRecorder()
	newTestMux().ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/public/bookings", nil))
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}

func TestWorkdayFromEnv(t *testing.T) {
	t.Setenv("WORKDAY_START", "08:30")
	t.Setenv("WORKDAY_END", "18:00")
	wd, err := workdayFromEnv()
	if err != nil || wd.Start != 510 || wd.End != 1080 {
		t.Fatalf("unexpected workday %+v err=%v", wd, err)
	}

	t.Setenv("WORKDAY_END", "08:00")
	if _, err := workdayFromEnv(); err == nil {
		t.Fatal("expected error when end is before start")
	}
}
