// Package vault seals and opens credential records with AES-256-GCM
// under the session's master key. Records exist in plaintext only
// transiently in memory; at rest and on the wire they are always
// EncryptedBlobs.
package vault

import (
	"fmt"

	"github.com/jmcleod/keywarden/internal/util"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = util.GCMNonceSize

// EncryptedBlob is the wire form of an encrypted payload. Both fields
// marshal as standard padded base64; the nonce is always exactly 12
// bytes before encoding and is never reused under the same key.
type EncryptedBlob struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

// Seal encrypts plaintext under the given 256-bit key with a fresh
// random nonce. Every byte sequence is valid input; failure means the
// underlying primitive failed.
func Seal(plaintext, key []byte) (*EncryptedBlob, error) {
	ciphertext, nonce, err := util.EncryptAES(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailure, err)
	}
	return &EncryptedBlob{Ciphertext: ciphertext, Nonce: nonce}, nil
}

// Open decrypts a blob under the given key. Any integrity failure
// surfaces as ErrAuthenticationFailure regardless of cause.
func Open(blob *EncryptedBlob, key []byte) ([]byte, error) {
	plaintext, err := util.DecryptAES(blob.Ciphertext, blob.Nonce, key)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}
	return plaintext, nil
}
