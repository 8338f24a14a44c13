package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router and all API routes.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/plans", func(r chi.Router) {
			r.Post("/draft", h.DraftPlan)
			r.Post("/validate", h.ValidatePlan)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPlan)
				r.Put("/", h.SavePlan)
				r.Delete("/", h.DeletePlan)
				r.Patch("/campaigns/{campaignID}", h.RescheduleCampaign)
			})
		})

		r.Route("/clients/{clientID}", func(r chi.Router) {
			r.Get("/plans", h.ListPlans)
			r.Route("/segments", func(r chi.Router) {
				r.Get("/", h.ListSegments)
				r.Put("/{name}", h.SaveSegment)
				r.Delete("/{name}", h.DeleteSegment)
			})
		})
	})

	return r
}
