package attendance

import (
	"net/http"

	"github.com/fleetpunch/attendance-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the worker-facing endpoints. Every route requires a
// bearer token; location pings are also rate limited per worker.
func SetupRoutes(svc *Service, tokens middleware.TokenResolver, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	h := NewHandler(svc)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerMiddleware(tokens))
		r.Post("/punch-in", h.PunchInHandler)
		r.Post("/punch-out", h.PunchOutHandler)
		r.Post("/deliveries", h.DeliveryHandler)
		r.Get("/today", h.TodayHandler)
		r.Get("/{id}/track", h.TrackHandler)

		r.With(limiter.Middleware).Post("/location", h.LocationHandler)
	})

	return r
}
