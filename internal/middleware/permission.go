package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/httperr"
	"github.com/rootsarchive/heritage-archive/internal/rbac"
)

// RequirePermission returns a middleware enforcing that the authenticated
// principal's role grants the named permission. It assumes JWTAuth ran
// earlier in the chain; a missing principal is treated as unauthenticated
// rather than forbidden. On an authenticated principal without the
// permission the request stops with a generic 403.
func RequirePermission(table *rbac.Table, permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return httperr.Unauthorized("authentication required")
			}
			if !table.HasPermission(p.RoleID, permission) {
				return httperr.Forbidden("forbidden")
			}
			return next(c)
		}
	}
}

// RequireAnyPermission is like RequirePermission but passes when the role
// grants at least one of the named permissions.
func RequireAnyPermission(table *rbac.Table, permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return httperr.Unauthorized("authentication required")
			}
			if !table.HasAnyPermission(p.RoleID, permissions...) {
				return httperr.Forbidden("forbidden")
			}
			return next(c)
		}
	}
}
