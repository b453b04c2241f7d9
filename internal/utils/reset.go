package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// ResetCodeDigits is the length of a one-time password reset code. Six
// digits keeps the code typeable from an email on a phone while the short
// expiry and per-email single-pending-code rule bound the guessing space.
const ResetCodeDigits = 6

// NewResetCode returns a zero-padded numeric one-time code drawn from
// crypto/rand. Only its HashToken digest is ever persisted.
func NewResetCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < ResetCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", ResetCodeDigits, n), nil
}
