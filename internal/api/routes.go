package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Server identity header
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "commerce-pulse-v1.0")
			next.ServeHTTP(w, req)
		})
	})

	// CORS - the dashboard frontend runs on a separate dev port
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Dashboard - all data in one call
		r.Get("/dashboard", h.GetDashboard)

		// Unified customers joined across both platforms
		r.Get("/customers/unified", h.GetUnifiedCustomers)

		// Campaign revenue attribution
		r.Get("/attribution", h.GetAttribution)

		// Upstream connectivity
		r.Get("/connections", h.GetConnections)

		// Persisted dashboard snapshots
		r.Get("/snapshots", h.GetSnapshots)
		r.Get("/snapshots/latest", h.GetLatestSnapshot)
	})

	return r
}
