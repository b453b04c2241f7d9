// Package repository defines error values reused across the persistence
// layer. Sentinels let handlers distinguish failure cases (duplicate email,
// consumed refresh token, stale reset code) from genuine database faults
// without string matching.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique email
// index. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidRefresh is returned when a refresh token cannot be claimed:
// unknown hash, expired, or already consumed by a concurrent rotation.
// Handlers translate this into HTTP 401.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// ErrInvalidResetCode is returned when no live reset code matches the
// supplied email/code pair. Handlers translate this into HTTP 400.
var ErrInvalidResetCode = errors.New("invalid or expired code")
