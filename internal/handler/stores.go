package handler

import (
	"context"
	"time"

	"github.com/rootsarchive/heritage-archive/internal/model"
	"github.com/rootsarchive/heritage-archive/internal/queue"
)

// Handlers depend on narrow store interfaces rather than the concrete
// repositories so the auth flow can be exercised in tests against in-memory
// implementations. The repository types satisfy these directly.

// UserStore is the credential store surface handlers need.
type UserStore interface {
	Create(ctx context.Context, fullName, email, passwordHash string, roleID uint8) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uint64) error
	SetStatus(ctx context.Context, id uint64, status string) error
	List(ctx context.Context) ([]model.User, error)
}

// TokenStore persists refresh tokens by hash.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Consume(ctx context.Context, tokenHash string) (uint64, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ResetStore persists pending password reset codes by email.
type ResetStore interface {
	Upsert(ctx context.Context, email, codeHash string, exp time.Time) error
	Consume(ctx context.Context, email, codeHash string) error
}

// ActivityStore reads the audit trail for the dashboard.
type ActivityStore interface {
	Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error)
}

// EventPublisher sends an auth event to the broker. Calls are best-effort;
// handlers ignore the returned error.
type EventPublisher func(ctx context.Context, event queue.AuthEvent) error
