/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the attendance dashboard

ROUTE GROUPS:
  /api/punches               Punch ingestion
  /api/employees/*           Directory, segments, per-employee pipeline
  /api/eligible              Eligibility on a date
  /api/computations/*        Daily computation trigger
  /api/manhours/incomplete   Oldest open record
  /api/health                Liveness

SECURITY NOTE:
  No authentication middleware. Deploy behind the plant's internal gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultCORSOrigins is used when NewRouter receives no origins.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/punches", h.RecordPunches)
		r.Get("/eligible", h.ListEligible)

		// Directory and per-employee pipeline
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)
			r.Get("/{key}/punches", h.ListPunches)
			r.Post("/{key}/segments", h.AppendSegment)
			r.Get("/{key}/segments/resolve", h.ResolveSegment)
			r.Post("/{key}/disambiguate/{date}", h.Disambiguate)
			r.Get("/{key}/manhours/{date}", h.GetManHours)
			r.Post("/{key}/manhours/{date}/recompute", h.RecomputeManHours)
		})

		r.Post("/computations/run", h.RunComputation)
		r.Get("/manhours/incomplete", h.GetIncomplete)
	})

	return r
}
