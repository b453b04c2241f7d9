package model

// Role represents a row in the `roles` table. The seeded set is small
// (admin, editor, member) and rarely changes at runtime, so the whole table
// is read once at startup and frozen into an in-memory permission lookup.
//
// Fields:
//  ID          – numeric identifier of the role.
//  Name        – unique role name (e.g. "admin", "editor", "member").
//  Permissions – raw stored permission set: either a comma-delimited list
//                ("manage_books,view_dashboard") or a JSON array
//                (["manage_books","view_dashboard"]). The literal "all"
//                is a wildcard granting every permission.
type Role struct {
	ID          uint8  // roles.id
	Name        string // roles.name
	Permissions string // roles.permissions
}
