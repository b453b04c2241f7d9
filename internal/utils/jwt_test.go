package utils

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-for-signing"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, 3, 15)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if tok.Token == "" {
		t.Fatal("NewAccessToken() returned empty token")
	}
	if !tok.Exp.After(time.Now().UTC()) {
		t.Errorf("expiry %v is not in the future", tok.Exp)
	}

	p, err := VerifyAccessToken(testSecret, tok.Token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if p.UserID != 42 {
		t.Errorf("UserID = %d, want 42", p.UserID)
	}
	if p.RoleID != 3 {
		t.Errorf("RoleID = %d, want 3", p.RoleID)
	}
}

func TestVerifyAccessTokenFailures(t *testing.T) {
	valid, err := NewAccessToken(testSecret, 7, 1, 15)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	expired, err := NewAccessToken(testSecret, 7, 1, -1)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}

	tests := []struct {
		name    string
		secret  string
		raw     string
		wantErr error
	}{
		{
			name:    "expired token with correct signature",
			secret:  testSecret,
			raw:     expired.Token,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			secret:  "a-different-secret",
			raw:     valid.Token,
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "garbage token",
			secret:  testSecret,
			raw:     "not.a.jwt",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			secret:  testSecret,
			raw:     "",
			wantErr: ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyAccessToken(tt.secret, tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyAccessToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	b, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	if len(a.Raw) != 96 { // 48 random bytes hex-encoded
		t.Errorf("raw length = %d, want 96", len(a.Raw))
	}
	if a.Raw == b.Raw {
		t.Error("two refresh tokens should not collide")
	}
	if !a.Exp.After(time.Now().UTC().Add(29 * 24 * time.Hour)) {
		t.Errorf("expiry %v is sooner than expected", a.Exp)
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("some-raw-token")
	h2 := HashToken("some-raw-token")
	if h1 != h2 {
		t.Error("HashToken() is not deterministic")
	}
	if len(h1) != 64 { // sha256 hex
		t.Errorf("digest length = %d, want 64", len(h1))
	}
	if h1 == HashToken("another-token") {
		t.Error("distinct inputs should not share a digest")
	}
}
