package main

import (
	"net/http"

	"github.com/md-rashed-zaman/sharebook/libs/auth"
	"github.com/md-rashed-zaman/sharebook/libs/httpx"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routeDeps struct {
	public    *handlers.PublicHandler
	admin     *handlers.AdminHandler
	verifier  auth.Verifier
	rateLimit httpx.Middleware
	metrics   http.Handler
}

// registerRoutes mounts the public booking widget routes behind the rate
// limiter and the staff routes behind JWT auth.
func registerRoutes(mux *http.ServeMux, d routeDeps) {
	public := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, d.rateLimit)
	}
	staff := func(h http.HandlerFunc, roles ...string) http.Handler {
		return httpx.Chain(h, auth.RequireAuth(d.verifier), auth.RequireRole(roles...))
	}

	mux.Handle("POST /api/v1/public/bookings", public(d.public.Create))
	mux.Handle("GET /api/v1/public/slots", public(d.public.Slots))

	mux.Handle("GET /api/v1/bookings", staff(d.admin.List, "owner", "admin", "staff"))
	mux.Handle("POST /api/v1/bookings/archive", staff(d.admin.Archive, "owner", "admin"))
	mux.Handle("POST /api/v1/share-tokens", staff(d.admin.IssueToken, "owner", "admin"))
	mux.Handle("POST /api/v1/share-tokens/revoke", staff(d.admin.RevokeToken, "owner", "admin"))

	metrics := d.metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	mux.Handle("GET /metrics", metrics)
}
