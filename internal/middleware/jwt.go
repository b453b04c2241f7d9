package middleware // reusable HTTP middleware for the API

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/httperr"
	"github.com/rootsarchive/heritage-archive/internal/utils"
)

// Context keys under which the authenticated principal is stored. Handlers
// read these via c.Get after JWTAuth has run.
const (
	CtxUserID = "user_id"
	CtxRoleID = "role_id"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and attaches the principal {user id, role id} to the request context.
// Verification is a pure signature-plus-expiry check; no storage lookup
// happens on this path. The response for any failure is a generic 401 —
// whether the token was missing, malformed, forged or expired is not
// revealed to the caller.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return httperr.Unauthorized("authentication required")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			p, err := utils.VerifyAccessToken(secret, raw)
			if err != nil {
				return httperr.Unauthorized("invalid or expired token")
			}

			c.Set(CtxUserID, p.UserID)
			c.Set(CtxRoleID, p.RoleID)
			return next(c)
		}
	}
}

// CurrentPrincipal reads the principal stored by JWTAuth. ok is false when
// the middleware did not run or stored unexpected types.
func CurrentPrincipal(c echo.Context) (utils.Principal, bool) {
	uid, okU := c.Get(CtxUserID).(uint64)
	rid, okR := c.Get(CtxRoleID).(uint8)
	if !okU || !okR {
		return utils.Principal{}, false
	}
	return utils.Principal{UserID: uid, RoleID: rid}, true
}
