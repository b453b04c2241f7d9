package model

import "time"

// User represents an account record as stored in the `users` table. Each
// field corresponds to a column. Handlers define their own response types
// with JSON tags; these structs stay internal to the repository layer.
//
// Accounts are never hard-deleted: administrators flip Status between
// "active" and "disabled" instead, so activity history keeps a valid owner.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FullName     – display name supplied at signup.
//  Email        – unique, stored lowercase.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table (tinyint).
//  Status       – account status, "active" or "disabled".
//  LastLogin    – timestamp of the most recent successful login (nullable).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64     // users.id
	FullName     string     // users.full_name
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	RoleID       uint8      // users.role_id (references roles.id)
	Status       string     // users.status ("active" | "disabled")
	LastLogin    *time.Time // users.last_login (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// Account status values stored in users.status.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
