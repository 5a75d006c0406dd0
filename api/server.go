/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/establishments/*   Reports and roster, per store
  /api/employees/*        Hours-bank balance per employee
  /api/demo/*             Demo seed data (dev only)

SECURITY NOTE:
  No authentication middleware. Who may approve or reject is an
  authorization concern handled outside this engine.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/establishments/{id}", func(r chi.Router) {
			// Roster
			r.Get("/employees", h.ListEmployees)
			r.Post("/employees", h.CreateEmployee)

			// Reports
			r.Route("/reports/{month}", func(r chi.Router) {
				r.Get("/", h.GetReport)
				r.Put("/rates", h.UpdateRates)
				r.Post("/submit", h.SubmitReport)
				r.Post("/decision", h.DecideReport)

				r.Route("/items/{employeeID}", func(r chi.Router) {
					r.Put("/", h.UpdateItem)
					r.Post("/adjustments", h.AddAdjustment)
					r.Delete("/adjustments/{adjustmentID}", h.RemoveAdjustment)
					r.Post("/hours/monetize", h.MonetizeHours)
					r.Post("/hours/return", h.ReturnHours)
				})
			})
		})

		// Hours bank
		r.Route("/employees/{id}", func(r chi.Router) {
			r.Get("/hours", h.GetHoursBalance)
			r.Post("/hours/grant", h.GrantHours)
		})

		// Demo seed (dev only)
		r.Post("/demo/seed", h.SeedDemo)
	})

	return r
}
