package model

import "time"

// PasswordReset models the single pending reset code for an email address.
// The email is the primary key, so a new reset request overwrites any prior
// pending code for the same account: at most one code is ever valid. Only
// the SHA-256 hash of the code is stored.
//
// Fields:
//  Email     – primary key; lowercase account email.
//  CodeHash  – SHA-256 hex digest of the one-time code.
//  ExpiresAt – when the code stops being accepted.
//  CreatedAt – when the code was issued.
type PasswordReset struct {
	Email     string    // password_resets.email
	CodeHash  string    // password_resets.code_hash
	ExpiresAt time.Time // password_resets.expires_at
	CreatedAt time.Time // password_resets.created_at
}
