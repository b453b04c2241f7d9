// Package rbac holds the role-to-permission lookup. The roles table is read
// once at process start and frozen into a Table; permission checks on the
// request path are plain map lookups with no locking and no database access.
package rbac

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/rootsarchive/heritage-archive/internal/model"
)

// Wildcard grants every permission when present in a role's stored set.
const Wildcard = "all"

// Table is an immutable role-to-permission mapping. Construct it with New
// and never mutate it afterwards; concurrent readers need no synchronization.
type Table struct {
	names map[uint8]string
	byID  map[uint8]map[string]struct{}
}

// New builds a Table from role rows. Each role's stored permission set is
// either a JSON array or a comma-delimited string; both forms are accepted
// so older seed data keeps working.
func New(roles []model.Role) *Table {
	t := &Table{
		names: make(map[uint8]string, len(roles)),
		byID:  make(map[uint8]map[string]struct{}, len(roles)),
	}
	for _, r := range roles {
		set := make(map[string]struct{})
		for _, p := range parsePermissions(r.Permissions) {
			set[p] = struct{}{}
		}
		t.names[r.ID] = r.Name
		t.byID[r.ID] = set
	}
	return t
}

// HasPermission reports whether the role grants the named permission.
// Unknown roles grant nothing. The "all" wildcard grants everything.
func (t *Table) HasPermission(roleID uint8, permission string) bool {
	set, ok := t.byID[roleID]
	if !ok {
		return false
	}
	if _, ok := set[Wildcard]; ok {
		return true
	}
	_, ok = set[permission]
	return ok
}

// HasAnyPermission reports whether the role grants at least one of the
// named permissions.
func (t *Table) HasAnyPermission(roleID uint8, permissions ...string) bool {
	for _, p := range permissions {
		if t.HasPermission(roleID, p) {
			return true
		}
	}
	return false
}

// RoleName returns the name for a role id, or "" when unknown.
func (t *Table) RoleName(roleID uint8) string { return t.names[roleID] }

// IDByName returns the id of the named role.
func (t *Table) IDByName(name string) (uint8, bool) {
	for id, n := range t.names {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// Permissions returns the role's permission set, sorted, for display on the
// role catalogue endpoint. The returned slice is a copy.
func (t *Table) Permissions(roleID uint8) []string {
	set, ok := t.byID[roleID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RoleIDs returns all known role ids, sorted.
func (t *Table) RoleIDs() []uint8 {
	out := make([]uint8, 0, len(t.names))
	for id := range t.names {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// parsePermissions accepts a JSON array ("[\"a\",\"b\"]") or a delimited
// string ("a,b"). Entries are trimmed and empties dropped.
func parsePermissions(stored string) []string {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return nil
	}
	if strings.HasPrefix(stored, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(stored), &arr); err == nil {
			return cleanPermissions(arr)
		}
		// Malformed JSON falls through to delimiter parsing rather than
		// silently granting nothing from a typo'd seed row.
	}
	return cleanPermissions(strings.Split(stored, ","))
}

func cleanPermissions(in []string) []string {
	out := in[:0]
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
