// Package storage defines the persistence boundary for the client
// core: account registration records and encrypted blobs, nothing
// else. The core never hands a store plaintext or key material; every
// blob is sealed before it reaches a Repository, and the only
// credential-derived value stored is a one-way hash.
package storage

import (
	"context"
	"errors"

	"github.com/jmcleod/keywarden/kdf"
	"github.com/jmcleod/keywarden/vault"
)

// ErrNotFound is returned when the requested account or blob does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrAccountExists is returned by SaveAccount when a record is already
// stored for the username.
var ErrAccountExists = errors.New("account already exists")

// Account is the durable registration record for one username: the
// derivation parameters handed back to clients before login, and the
// hash of the authentication tag checked at login. The tag hash is not
// invertible toward the tag, let alone the master key.
type Account struct {
	Params   kdf.Params `json:"params"`
	AuthHash []byte     `json:"auth_hash"`
}

// Repository is the narrow storage interface consumed by the core's
// collaborators. Implementations live per backend outside the core.
type Repository interface {
	// SaveAccount persists the registration record for an account.
	// Parameters and tag hash are written together; overwriting an
	// existing record would invalidate all derived material, so
	// implementations reject duplicates.
	SaveAccount(ctx context.Context, username string, account Account) error
	// FetchAccount returns the registration record for an account.
	FetchAccount(ctx context.Context, username string) (Account, error)
	// PutBlob stores an encrypted blob under (username, blobID),
	// replacing any previous value.
	PutBlob(ctx context.Context, username, blobID string, blob *vault.EncryptedBlob) error
	// GetBlob retrieves an encrypted blob.
	GetBlob(ctx context.Context, username, blobID string) (*vault.EncryptedBlob, error)
	// DeleteBlob removes an encrypted blob.
	DeleteBlob(ctx context.Context, username, blobID string) error
	// ListBlobs returns the blob IDs stored for an account, in
	// unspecified order.
	ListBlobs(ctx context.Context, username string) ([]string, error)
}
