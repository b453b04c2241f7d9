package handler

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/rootsarchive/heritage-archive/internal/model"
	"github.com/rootsarchive/heritage-archive/internal/queue"
	"github.com/rootsarchive/heritage-archive/internal/repository"
)

// In-memory stores mirroring the repository semantics, including the
// claim-by-delete behavior Consume relies on.

type fakeUsers struct {
	mu   sync.Mutex
	seq  uint64
	byID map[uint64]model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, fullName, email, passwordHash string, roleID uint8) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	f.seq++
	now := time.Now().UTC()
	f.byID[f.seq] = model.User{
		ID: f.seq, FullName: fullName, Email: email, PasswordHash: passwordHash,
		RoleID: roleID, Status: model.StatusActive, CreatedAt: now, UpdatedAt: now,
	}
	return f.seq, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetStatus(_ context.Context, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Status = status
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.byID))
	for id := uint64(1); id <= f.seq; id++ {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type tokenRow struct {
	userID uint64
	exp    time.Time
}

type fakeTokens struct {
	mu   sync.Mutex
	rows map[string]tokenRow
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]tokenRow{}} }

func (f *fakeTokens) Store(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[tokenHash] = tokenRow{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) Consume(_ context.Context, tokenHash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[tokenHash]
	if !ok {
		return 0, repository.ErrInvalidRefresh
	}
	delete(f.rows, tokenHash)
	if time.Now().UTC().After(row.exp) {
		return 0, repository.ErrInvalidRefresh
	}
	return row.userID, nil
}

func (f *fakeTokens) Revoke(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, tokenHash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, row := range f.rows {
		if row.userID == userID {
			delete(f.rows, h)
		}
	}
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type resetRow struct {
	codeHash string
	exp      time.Time
}

type fakeResets struct {
	mu   sync.Mutex
	rows map[string]resetRow
}

func newFakeResets() *fakeResets { return &fakeResets{rows: map[string]resetRow{}} }

func (f *fakeResets) Upsert(_ context.Context, email, codeHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[email] = resetRow{codeHash: codeHash, exp: exp}
	return nil
}

func (f *fakeResets) Consume(_ context.Context, email, codeHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[email]
	if !ok || row.codeHash != codeHash || time.Now().UTC().After(row.exp) {
		return repository.ErrInvalidResetCode
	}
	delete(f.rows, email)
	return nil
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
}

func (f *fakeActivity) Recent(_ context.Context, limit int) ([]model.ActivityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]model.ActivityEntry, limit)
	copy(out, f.entries[:limit])
	return out, nil
}

// eventRecorder captures published events so tests can fish the reset code
// out of the password.reset.requested event the way the mailer would.
type eventRecorder struct {
	mu     sync.Mutex
	events []queue.AuthEvent
}

func (r *eventRecorder) publish(_ context.Context, ev queue.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) lastOfType(eventType string) (queue.AuthEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == eventType {
			return r.events[i], true
		}
	}
	return queue.AuthEvent{}, false
}
