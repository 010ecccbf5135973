package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-network/internal/api/http/handlers"
	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/ws"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Messages       *handlers.MessagesHandler
	Moderation     *handlers.ModerationHandler
	IdentityFilter *auth.IdentityFilter
	Policy         *auth.Policy
	Handshake      fiber.Handler
	Hub            *ws.Hub
}

// RegisterRoutes wires HTTP routes. Health, auth and the realtime upgrade
// are public; the upgrade carries its own one-time handshake
// authentication, and everything under /api goes through the identity
// filter followed by the policy table.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/ws", cfg.Handshake, websocket.New(cfg.Hub.Serve))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api := app.Group("/api", cfg.IdentityFilter.Handle, cfg.Policy.Enforce())
	api.Get("/me", cfg.Users.Me)
	api.Post("/messages", cfg.Messages.Send)
	api.Get("/messages", cfg.Messages.History)
	api.Get("/moderation/reports", cfg.Moderation.Reports)

	admin := api.Group("/admin")
	admin.Get("/users", cfg.Users.List)
	admin.Patch("/users/:id/role", cfg.Users.ChangeRole)
}
