package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/rbac"
)

// RolesHandler exposes the static role/permission catalogue. The table is
// frozen at startup, which is what makes this endpoint safe to cache.
type RolesHandler struct {
	Table *rbac.Table
}

func NewRolesHandler(t *rbac.Table) *RolesHandler { return &RolesHandler{Table: t} }

type rolePart struct {
	ID          uint8    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// List returns every role with its permission set.
func (h *RolesHandler) List(c echo.Context) error {
	ids := h.Table.RoleIDs()
	out := make([]rolePart, 0, len(ids))
	for _, id := range ids {
		out = append(out, rolePart{
			ID:          id,
			Name:        h.Table.RoleName(id),
			Permissions: h.Table.Permissions(id),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": out})
}
