// Package memory provides an in-memory storage repository, used in
// tests and for ephemeral single-process setups.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmcleod/keywarden/internal/util"
	"github.com/jmcleod/keywarden/kdf"
	"github.com/jmcleod/keywarden/storage"
	"github.com/jmcleod/keywarden/vault"
)

// Store implements storage.Repository backed by process memory.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]storage.Account
	blobs    map[string]map[string]vault.EncryptedBlob
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns an empty in-memory repository.
func NewRepository() *Store {
	return &Store{
		accounts: make(map[string]storage.Account),
		blobs:    make(map[string]map[string]vault.EncryptedBlob),
	}
}

func (s *Store) SaveAccount(_ context.Context, username string, account storage.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[username]; exists {
		return fmt.Errorf("%s: %w", username, storage.ErrAccountExists)
	}
	s.accounts[username] = copyAccount(account)
	return nil
}

func (s *Store) FetchAccount(_ context.Context, username string) (storage.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[username]
	if !ok {
		return storage.Account{}, fmt.Errorf("account %s: %w", username, storage.ErrNotFound)
	}
	return copyAccount(a), nil
}

func copyAccount(a storage.Account) storage.Account {
	return storage.Account{
		Params: kdf.Params{
			Salt:       util.CopyBytes(a.Params.Salt),
			Iterations: a.Params.Iterations,
		},
		AuthHash: util.CopyBytes(a.AuthHash),
	}
}

func (s *Store) PutBlob(_ context.Context, username, blobID string, blob *vault.EncryptedBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs[username] == nil {
		s.blobs[username] = make(map[string]vault.EncryptedBlob)
	}
	s.blobs[username][blobID] = vault.EncryptedBlob{
		Ciphertext: util.CopyBytes(blob.Ciphertext),
		Nonce:      util.CopyBytes(blob.Nonce),
	}
	return nil
}

func (s *Store) GetBlob(_ context.Context, username, blobID string) (*vault.EncryptedBlob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[username][blobID]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s: %w", username, blobID, storage.ErrNotFound)
	}
	return &vault.EncryptedBlob{
		Ciphertext: util.CopyBytes(b.Ciphertext),
		Nonce:      util.CopyBytes(b.Nonce),
	}, nil
}

func (s *Store) DeleteBlob(_ context.Context, username, blobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[username][blobID]; !ok {
		return fmt.Errorf("blob %s/%s: %w", username, blobID, storage.ErrNotFound)
	}
	delete(s.blobs[username], blobID)
	return nil
}

func (s *Store) ListBlobs(_ context.Context, username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.blobs[username]))
	for id := range s.blobs[username] {
		ids = append(ids, id)
	}
	return ids, nil
}
