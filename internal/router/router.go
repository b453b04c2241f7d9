package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/handler"
	"github.com/rootsarchive/heritage-archive/internal/middleware"
	"github.com/rootsarchive/heritage-archive/internal/rbac"
)

// RegisterRoutes registers routes that need no authentication. Currently
// that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the authentication endpoints. The credential
// endpoints (signup, login, refresh, reset) sit behind the rate limiter;
// me and logout require a valid bearer token instead.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	g.POST("/reset", a.RequestReset, limiter)
	g.POST("/reset/verify", a.VerifyReset, limiter)

	protected := g.Group("", middleware.JWTAuth(jwtSecret))
	protected.GET("/me", a.Me)
	protected.POST("/logout", a.Logout)
}

// RegisterAdmin wires the permission-gated administration endpoints. Every
// route authenticates first, then checks the specific permission: user
// administration needs manage_users, the activity feed is visible to any
// role holding view_dashboard (which manage_users implies for admins via
// the wildcard).
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, table *rbac.Table) {
	g := e.Group("/admin", middleware.JWTAuth(jwtSecret))
	g.GET("/users", h.ListUsers, middleware.RequirePermission(table, rbac.PermManageUsers))
	g.PATCH("/users/:id/status", h.SetUserStatus, middleware.RequirePermission(table, rbac.PermManageUsers))
	g.GET("/activity", h.ActivityFeed, middleware.RequireAnyPermission(table, rbac.PermViewDashboard, rbac.PermManageUsers))
}

// RegisterRoles exposes the role catalogue to any authenticated caller,
// with the Redis response cache layered after authentication so the cached
// body is only ever served to bearers of a valid token.
func RegisterRoles(e *echo.Echo, h *handler.RolesHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/roles", h.List, middleware.JWTAuth(jwtSecret), cache)
}
