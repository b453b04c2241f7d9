package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Each token
// belongs to a user (cascade-deleted with the user) and several may coexist
// per user so that multiple devices hold independent sessions. The plain
// token is never stored; only its SHA-256 hash.
//
// Rows are removed on logout, on rotation, and on expiry; there is no
// revoked flag — absence of the row is revocation.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
