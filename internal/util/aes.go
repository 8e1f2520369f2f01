package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// AESKeySize is the key length for AES-256-GCM.
	AESKeySize = 32
	// GCMNonceSize is the nonce length for AES-GCM (96 bits).
	GCMNonceSize = 12
)

// EncryptAES encrypts plaintext with AES-256-GCM under a fresh random
// 96-bit nonce. The nonce is returned separately from the ciphertext so
// callers can transport the two fields independently.
func EncryptAES(plainText, rawKey []byte) (cipherText, nonce []byte, err error) {
	if len(rawKey) != AESKeySize {
		return nil, nil, fmt.Errorf("invalid AES key size: got %d, want %d", len(rawKey), AESKeySize)
	}

	block, err := aes.NewCipher(rawKey)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}

	cipherText = gcm.Seal(nil, nonce, plainText, nil)
	return cipherText, nonce, nil
}

// DecryptAES decrypts AES-256-GCM ciphertext produced by EncryptAES.
// Any integrity failure (wrong key, tampered data) surfaces as a single
// opaque error from the GCM open.
func DecryptAES(cipherText, nonce, rawKey []byte) ([]byte, error) {
	if len(rawKey) != AESKeySize {
		return nil, fmt.Errorf("invalid AES key size: got %d, want %d", len(rawKey), AESKeySize)
	}

	block, err := aes.NewCipher(rawKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size: got %d, want %d", len(nonce), gcm.NonceSize())
	}

	plainText, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting ciphertext: %w", err)
	}

	return plainText, nil
}
