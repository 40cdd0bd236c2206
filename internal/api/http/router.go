package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/complaint-service/internal/api/http/handlers"
	"github.com/civicdesk/complaint-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Providers      *handlers.ProvidersHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/providers/login", cfg.Providers.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	complaints := app.Group("/complaints", cfg.AuthMiddleware.Handle, auth.RequireUser())
	complaints.Post("", cfg.Complaints.Submit)
	complaints.Get("", cfg.Complaints.List)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Post("/:id/rating", cfg.Complaints.Rate)

	provider := app.Group("/provider", cfg.AuthMiddleware.Handle, auth.RequireProvider())
	provider.Get("/complaints", cfg.Providers.Queue)
	provider.Get("/complaints/:id", cfg.Providers.History)
	provider.Post("/complaints/:id/status", cfg.Providers.Transition)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/providers", cfg.Admin.CreateProvider)
	admin.Get("/providers", cfg.Admin.ListProviders)
	admin.Get("/providers/loads", cfg.Admin.DepartmentLoads)
	admin.Patch("/providers/:id/active", cfg.Admin.SetProviderActive)
	admin.Get("/complaints", cfg.Admin.ListComplaints)
	admin.Get("/complaints/:id", cfg.Admin.GetComplaint)
	admin.Get("/dashboard", cfg.Admin.Dashboard)
}
