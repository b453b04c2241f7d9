package repository

import (
	"context"
	"database/sql"
	"time"
)

// ResetRepo persists pending password reset codes. Email is the table's
// primary key, so issuing a new code replaces the old one and at most one
// code per account is ever live.
type ResetRepo struct{ DB *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{DB: db} }

// Upsert stores the hash of a freshly issued code, superseding any pending
// code for the same email.
func (r *ResetRepo) Upsert(ctx context.Context, email, codeHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO password_resets (email, code_hash, expires_at)
		 VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE code_hash=VALUES(code_hash), expires_at=VALUES(expires_at), created_at=NOW()`,
		email, codeHash, exp)
	return err
}

// Consume validates and burns a reset code in one statement. The DELETE
// only matches a live, correct code, and its affected-row count decides the
// outcome, so a code verifies exactly once even under concurrent attempts.
func (r *ResetRepo) Consume(ctx context.Context, email, codeHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_resets WHERE email=? AND code_hash=? AND expires_at > UTC_TIMESTAMP()",
		email, codeHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidResetCode
	}
	return nil
}
