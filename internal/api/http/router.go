package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/api/http/handlers"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Agents         *handlers.AgentsHandler
	Triage         *handlers.TriageHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/agents/login", cfg.Agents.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authProtected.Post("/password/change", cfg.Users.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	agents := app.Group("/agents", cfg.AuthMiddleware.Handle, auth.RequireAgentRole())
	agents.Get("/available", cfg.Agents.ListAvailable)
	agents.Get("/queue", cfg.Agents.ReviewQueue)
	agents.Get("/tickets/:id", cfg.Agents.GetTicket)
	agents.Post("/tickets/:id/claim", cfg.Agents.ClaimTicket)
	agents.Post("/tickets/:id/comments", cfg.Agents.AddComment)
	agents.Patch("/tickets/:id/status", cfg.Agents.UpdateStatus)
	agents.Patch("/tickets/:id/priority", cfg.Agents.UpdatePriority)

	triage := app.Group("/triage", cfg.AuthMiddleware.Handle, auth.RequireAgentRole())
	triage.Post("/tickets/:id/process", cfg.Triage.ProcessTicket)
	triage.Get("/tickets/:id/status", cfg.Triage.GetStatus)
	triage.Get("/tickets/:id/suggestions", cfg.Triage.ListSuggestions)
}
