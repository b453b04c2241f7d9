// Package queue defines the auth event payloads exchanged over the message
// broker and the consumer that folds them into the activity log.
package queue

// Event types published to the auth.events queue.
const (
	EventUserRegistered       = "user.registered"
	EventUserLogin            = "user.login"
	EventPasswordResetRequest = "password.reset.requested"
	EventPasswordChanged      = "password.changed"
	EventUserStatusChanged    = "user.status.changed"
)

// AuthEvent is published on every notable credential-store change. It
// carries enough for downstream consumers (activity log, mailer) to act
// without querying the primary database.
//
// Code is only set on password.reset.requested: it is the one-time code the
// mailer delivers to the account holder. The activity consumer must never
// persist it.
type AuthEvent struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id,omitempty"`
	Email      string `json:"email"`
	Detail     string `json:"detail,omitempty"`
	Code       string `json:"code,omitempty"`
	OccurredAt string `json:"occurred_at"` // RFC3339 UTC
}
