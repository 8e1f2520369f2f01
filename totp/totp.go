// Package totp implements RFC 6238 time-based one-time passwords and
// the deterministic per-user seed derivation that makes the seed
// re-derivable from the master key instead of stored in plaintext.
//
// SHA-1, 6 digits and a 30-second period are fixed, not configurable:
// they must match the fixed expectations of third-party authenticator
// apps. This is an interoperability constraint, not a security choice.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	// SeedBytes is the raw seed length (160 bits per RFC 4226).
	SeedBytes = 20
	// Digits is the code length.
	Digits = 6
	// Period is the time-step in seconds.
	Period = 30
	// window is the clock-skew tolerance in time-steps on either side.
	window = 1
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// HOTP computes the RFC 4226 code for a base32 seed at the given
// counter: HMAC-SHA-1 over the 8-byte big-endian counter, dynamic
// truncation, mod 10^6, zero-padded to 6 digits.
func HOTP(seed string, counter uint64) (string, error) {
	key, err := decodeSeed(seed)
	if err != nil {
		return "", err
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	binCode := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	return fmt.Sprintf("%0*d", Digits, binCode%1_000_000), nil
}

// Code computes the TOTP code for the given time (counter = unix/30).
func Code(seed string, at time.Time) (string, error) {
	return HOTP(seed, uint64(at.Unix()/Period))
}

// Verify reports whether candidate matches the code for the current,
// previous or next time-step (±30s clock skew). Each comparison is
// constant-time and a single boolean is returned regardless of which
// offset matched.
func Verify(seed, candidate string, at time.Time) bool {
	candidate = normalizeCode(candidate)
	if !validCode(candidate) {
		return false
	}

	matched := false
	for i := -window; i <= window; i++ {
		expected, err := Code(seed, at.Add(time.Duration(i*Period)*time.Second))
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1 {
			matched = true
		}
	}
	return matched
}

func normalizeCode(code string) string {
	return strings.TrimSpace(strings.ReplaceAll(code, " ", ""))
}

func validCode(code string) bool {
	if len(code) != Digits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func decodeSeed(seed string) ([]byte, error) {
	key, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(seed)))
	if err != nil {
		return nil, fmt.Errorf("%w: not base32", ErrInvalidSeed)
	}
	return key, nil
}
