package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS for web UI
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "x-user-id", "x-admin", "x-auth-token", "x-rate-rpm", "x-discovery-share", "x-use-overdrive"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/viewers/{viewer_id}", func(r chi.Router) {
			r.Get("/timeline", h.GetTimeline)
			r.Get("/timeline/for-you", h.GetForYou)
			r.Get("/timeline/following", h.GetFollowing)
			r.Post("/timeline/refresh", h.RefreshTimeline)
			r.Post("/timeline/read", h.MarkTimelineRead)
			r.Get("/timeline/stream", h.SubscribeTimelineUpdates)
			r.Post("/engagements", h.RecordEngagement)
		})

		// User operations
		r.Get("/users/sample", h.GetSampleViewers)
		r.Get("/users/{id}/followers", h.GetViewerFollowers)
		r.Get("/users/{id}/following", h.GetViewerFollowing)

		// Metrics
		r.Get("/metrics", h.GetMetrics)
		r.Get("/metrics/recent", h.GetRecentMetrics)
		r.Delete("/metrics", h.ClearMetrics)
	})

	return r
}
