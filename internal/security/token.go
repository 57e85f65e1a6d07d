package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	SessionTokenBytes      = 32
	VerificationTokenBytes = 32
	ResetTokenBytes        = 32

	aliasAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewOpaqueToken returns n random bytes hex encoded. A failure here means the
// entropy source is broken and callers should treat it as fatal.
func NewOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func NewSessionToken() (string, error) {
	return NewOpaqueToken(SessionTokenBytes)
}

func NewVerificationToken() (string, error) {
	return NewOpaqueToken(VerificationTokenBytes)
}

func NewResetToken() (string, error) {
	return NewOpaqueToken(ResetTokenBytes)
}

func NewAlias(length int) (string, error) {
	max := big.NewInt(int64(len(aliasAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random alias: %w", err)
		}
		out[i] = aliasAlphabet[n.Int64()]
	}
	return string(out), nil
}
