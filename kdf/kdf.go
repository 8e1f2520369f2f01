// Package kdf derives the master encryption key and the server-side
// authentication tag from a user's master password.
//
// Two independent PBKDF2-HMAC-SHA-256 passes run over the same password
// with the same iteration count: one over the account salt produces the
// 256-bit master key, the other over the account salt with a fixed
// suffix produces the authentication tag. The tag is safe to send to a
// verification server; the key never leaves the client process.
package kdf

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jmcleod/keywarden/internal/util"
)

const (
	// MinIterations is the policy floor for PBKDF2 rounds.
	MinIterations = 100_000
	// MinSaltLen is the policy floor for salt length in bytes.
	MinSaltLen = 32
	// DefaultIterations is used for newly registered accounts.
	DefaultIterations = 210_000
	// KeyLen is the derived key and tag length (256 bits).
	KeyLen = 32
)

// authSaltSuffix separates the authentication-tag derivation from the
// key derivation. Both passes have identical cost so timing cannot
// distinguish them.
var authSaltSuffix = []byte("auth")

// ErrWeakParameters indicates derivation inputs below the policy floor.
// Callers must not proceed with derivation.
var ErrWeakParameters = errors.New("derivation parameters below policy floor")

// Params are the per-account derivation parameters. They are generated
// once at registration, persisted server-side, and immutable thereafter.
type Params struct {
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
}

// Validate checks the parameters against the policy floor.
func (p Params) Validate() error {
	if p.Iterations < MinIterations {
		return fmt.Errorf("%w: %d iterations (min %d)", ErrWeakParameters, p.Iterations, MinIterations)
	}
	if len(p.Salt) < MinSaltLen {
		return fmt.Errorf("%w: %d-byte salt (min %d)", ErrWeakParameters, len(p.Salt), MinSaltLen)
	}
	return nil
}

// NewParams generates fresh parameters with a random salt and the
// default iteration count.
func NewParams() (Params, error) {
	salt, err := util.RandomBytes(MinSaltLen)
	if err != nil {
		return Params{}, fmt.Errorf("generating salt: %w", err)
	}
	return Params{Salt: salt, Iterations: DefaultIterations}, nil
}

// Material is the output of a derivation. Key is the master encryption
// key; AuthTag is the independent server-verifiable value. The two are
// never equal and neither is invertible to the other.
type Material struct {
	Key     []byte
	AuthTag []byte
}

// Wipe best-effort zeroes the derived material.
func (m *Material) Wipe() {
	util.WipeBytes(m.Key)
	util.WipeBytes(m.AuthTag)
}

// Derive runs both derivation passes over the NFKD-normalised password.
// It is deterministic: identical inputs always yield identical material.
// The amount of work is fixed by the parameters alone, never by the
// password content.
func Derive(password string, p Params) (*Material, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	pw := []byte(util.Normalize(password))
	defer util.WipeBytes(pw)

	authSalt := make([]byte, 0, len(p.Salt)+len(authSaltSuffix))
	authSalt = append(authSalt, p.Salt...)
	authSalt = append(authSalt, authSaltSuffix...)

	key := pbkdf2.Key(pw, p.Salt, p.Iterations, KeyLen, sha256.New)
	tag := pbkdf2.Key(pw, authSalt, p.Iterations, KeyLen, sha256.New)

	return &Material{Key: key, AuthTag: tag}, nil
}
