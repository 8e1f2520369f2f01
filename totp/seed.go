package totp

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// seedInfo is the fixed context label for the HKDF expand step.
var seedInfo = []byte("keywarden:totp:v1")

// DeriveSeed deterministically derives a per-user TOTP seed from the
// master key: HKDF-SHA-256 extract with salt "totp:"+username over the
// key, then a one-block expand under the fixed context label. The first
// 20 bytes are base32-encoded for authenticator interoperability.
//
// The same (masterKey, username) always yields the same seed, so the
// seed is never stored in plaintext and any client holding the correct
// master key can re-derive it.
func DeriveSeed(masterKey []byte, username string) (string, error) {
	salt := []byte("totp:" + username)
	r := hkdf.New(sha256.New, masterKey, salt, seedInfo)

	seed := make([]byte, SeedBytes)
	if _, err := io.ReadFull(r, seed); err != nil {
		return "", fmt.Errorf("reading from HKDF: %w", err)
	}
	return b32.EncodeToString(seed), nil
}
