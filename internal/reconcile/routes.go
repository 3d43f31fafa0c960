package reconcile

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fleetpunch/attendance-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes exposes a manual trigger for the batch to admins.
func SetupRoutes(r *Runner, tokens middleware.TokenResolver) http.Handler {
	router := chi.NewRouter()

	router.Group(func(g chi.Router) {
		g.Use(middleware.BearerMiddleware(tokens))
		g.Use(middleware.AdminMiddleware)
		g.Post("/reconcile", RunHandler(r))
	})

	return router
}

// RunHandler reconciles ?date=YYYY-MM-DD, defaulting to today.
func RunHandler(r *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		date := req.URL.Query().Get("date")
		if date == "" {
			date = r.Today()
		}

		sum, err := r.Run(req.Context(), date)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrInvalidDate) {
				status = http.StatusBadRequest
			}
			log.Printf("[reconcile] manual run for %s failed: %v", date, err)
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"code":    "RECONCILE_FAILED",
				"message": err.Error(),
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"summary": sum,
		})
	}
}
