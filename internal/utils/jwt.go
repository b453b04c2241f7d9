package utils // package utils provides helper functions for token creation, verification and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens and reset codes
	"encoding/hex"  // hex encoding for token material
	"errors"        // sentinel error definitions
	"time"          // expiry arithmetic

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Verification failures are reported through sentinels so the middleware can
// treat an expired-but-authentic token differently from a forged one without
// inspecting error strings.
var (
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidToken     = errors.New("invalid token")
)

// Principal is the authenticated identity carried by a verified access
// token. It is attached to the request context by the auth middleware and
// is everything the permission check needs.
type Principal struct {
	UserID uint64 // subject of the token
	RoleID uint8  // role used for permission lookups
}

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and travel in the Authorization header.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived opaque token used to obtain new
// access tokens. The Raw string goes back to the client; the database keeps
// only its SHA-256 hash.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims are
// sub (user id), role (role id), exp and iat. Verification is stateless: a
// signature check plus expiry, no storage lookup.
func NewAccessToken(secret string, userID uint64, roleID uint8, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": roleID,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates a serialized access token and
// returns the embedded principal. Failures map to the sentinel errors above:
// ErrExpiredToken when the signature is fine but exp has passed,
// ErrInvalidSignature when the signature or algorithm is wrong, and
// ErrInvalidToken for anything else (malformed token, missing claims).
func VerifyAccessToken(secret, raw string) (Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is ever used for signing; reject anything else so a
		// token cannot downgrade the algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Principal{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrInvalidSignature):
			return Principal{}, ErrInvalidSignature
		default:
			return Principal{}, ErrInvalidToken
		}
	}
	if !tok.Valid {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	// Numeric JSON claims decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return Principal{}, ErrInvalidToken
	}
	role, ok := claims["role"].(float64)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: uint64(sub), RoleID: uint8(role)}, nil
}

// NewRefreshToken returns a cryptographically random opaque token and its
// expiration. Refresh tokens live for ttlDays and are rotated on every use.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashToken returns the SHA-256 hash of raw token material as a hex string.
// Refresh tokens and reset codes are stored hashed so a leaked database
// cannot be replayed against the API.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
