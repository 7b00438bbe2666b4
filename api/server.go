/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/deal-types, /api/presets/*   Deal catalog
  /api/deals/*                      Analysis and comparison
  /api/analyses/*                   Saved analyses
  /api/distress/*, /api/parks/*     Distress scoring
  /api/admin/*                      Batch operations
  /api/scenarios/*                  Demo data
  /api/benchmarks                   Reference bands

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/deal-types", h.ListDealTypes)
		r.Get("/presets/{type}", h.GetPreset)
		r.Get("/benchmarks", h.GetBenchmarks)

		// Deal analysis
		r.Route("/deals", func(r chi.Router) {
			r.Post("/analyze", h.AnalyzeDeal)
			r.Post("/compare", h.CompareDeals)
			r.Post("/{type}/analyze", h.AnalyzeDealType)
		})

		// Saved analyses
		r.Route("/analyses", func(r chi.Router) {
			r.Get("/", h.ListAnalyses)
			r.Post("/", h.SaveAnalysis)
			r.Get("/{id}", h.GetAnalysis)
			r.Delete("/{id}", h.DeleteAnalysis)
		})

		// Distress
		r.Post("/distress/score", h.ScoreDistress)
		r.Route("/parks", func(r chi.Router) {
			r.Get("/", h.ListParks)
			r.Get("/distressed", h.ListDistressedParks)
			r.Get("/{id}", h.GetPark)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/distress/run", h.TriggerDistressRun)
			r.Get("/distress/runs", h.ListDistressRuns)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
