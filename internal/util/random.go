package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}

// RandomIntn returns an unbiased random int in [0, max).
func RandomIntn(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("generating random number: %w", err)
	}
	return int(n.Int64()), nil
}

// RandomChars returns n random characters drawn uniformly from the
// given alphabet.
func RandomChars(alphabet string, n int) (string, error) {
	runes := []rune(alphabet)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		idx, err := RandomIntn(len(runes))
		if err != nil {
			return "", fmt.Errorf("generating random char index: %w", err)
		}
		sb.WriteRune(runes[idx])
	}
	return sb.String(), nil
}
