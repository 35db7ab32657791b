package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var codeRange = big.NewInt(900000)

// NewCode returns a uniformly random six-digit code in 100000-999999.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
