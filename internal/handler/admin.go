package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/httperr"
	"github.com/rootsarchive/heritage-archive/internal/model"
	"github.com/rootsarchive/heritage-archive/internal/queue"
)

// AdminHandler serves the permission-gated administration endpoints. The
// permission checks themselves live in the middleware chain; by the time a
// request reaches these methods it carries a principal whose role grants
// manage_users (or view_dashboard for the activity feed).
type AdminHandler struct {
	Users    UserStore
	Tokens   TokenStore
	Activity ActivityStore
	Publish  EventPublisher
}

func NewAdminHandler(u UserStore, t TokenStore, a ActivityStore, pub EventPublisher) *AdminHandler {
	return &AdminHandler{Users: u, Tokens: t, Activity: a, Publish: pub}
}

type statusReq struct {
	Status string `json:"status"`
}

type activityPart struct {
	ID         uint64    `json:"id"`
	EventType  string    `json:"eventType"`
	UserID     uint64    `json:"userId,omitempty"`
	Email      string    `json:"email"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ListUsers returns every account for the user-admin screen.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return httperr.Internal("query failed")
	}
	out := make([]*userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// SetUserStatus toggles an account between active and disabled. Disabling
// also revokes every refresh token so open sessions die with the account.
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return httperr.Validation("invalid user id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid body")
	}
	if req.Status != model.StatusActive && req.Status != model.StatusDisabled {
		return httperr.Validation("status must be \"active\" or \"disabled\"")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httperr.NotFound("user not found")
		}
		return httperr.Internal("query failed")
	}

	if err := h.Users.SetStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httperr.NotFound("user not found")
		}
		return httperr.Internal("update failed")
	}
	if req.Status == model.StatusDisabled {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return httperr.Internal("update failed")
		}
	}

	if h.Publish != nil {
		_ = h.Publish(ctx, queue.AuthEvent{
			Type: queue.EventUserStatusChanged, UserID: id, Email: u.Email,
			Detail: req.Status, OccurredAt: nowRFC3339(),
		})
	}

	u.Status = req.Status
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// ActivityFeed returns the newest audit entries. ?limit caps the page size.
func (h *AdminHandler) ActivityFeed(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return httperr.Validation("limit must be a positive integer")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	entries, err := h.Activity.Recent(ctx, limit)
	if err != nil {
		return httperr.Internal("query failed")
	}
	out := make([]activityPart, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityPart{
			ID: e.ID, EventType: e.EventType, UserID: e.UserID,
			Email: e.Email, Detail: e.Detail, OccurredAt: e.OccurredAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": out})
}
