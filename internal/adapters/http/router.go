// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/wemeet/internal/adapters/http/handlers"
)

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given.
func NewRouter(
	projectHandler *handlers.ProjectHandler,
	teamHandler *handlers.TeamHandler,
	healthHandler *handlers.HealthHandler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// API v1 routes.
	r.Route("/api/v1", func(r chi.Router) {
		// Project lifecycle.
		r.Get("/projects", projectHandler.ListProjects)
		r.Post("/projects", projectHandler.CreateProject)
		r.Get("/projects/{id}", projectHandler.GetProject)
		r.Patch("/projects/{id}", projectHandler.ApplyRevision)
		r.Post("/projects/{id}/cancel", projectHandler.CancelProject)
		r.Post("/projects/{id}/close", projectHandler.CloseProject)
		r.Post("/projects/{id}/revise", projectHandler.ReviseProject)
		r.Post("/projects/{id}/approve", projectHandler.ApproveProject)
		r.Post("/projects/{id}/reject", projectHandler.RejectProject)
		r.Post("/projects/{id}/undo", projectHandler.UndoProject)

		// Team recruiting. batch-approve is registered before {id} routes
		// so chi does not treat it as a team id.
		r.Post("/teams/batch-approve", teamHandler.BatchApproveTeams)
		r.Get("/teams/{id}", teamHandler.GetTeam)
		r.Post("/teams/{id}/join", teamHandler.JoinTeam)
		r.Post("/teams/{id}/accept", teamHandler.AcceptMember)
		r.Post("/teams/{id}/reject", teamHandler.RejectMember)
		r.Post("/teams/{id}/quit", teamHandler.QuitTeam)
		r.Post("/teams/{id}/cancel", teamHandler.CancelTeam)
		r.Post("/teams/{id}/approve", teamHandler.ApproveTeam)
	})

	return r
}
