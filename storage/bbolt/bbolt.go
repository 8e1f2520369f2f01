// Package bbolt provides a BBolt-backed storage repository for
// single-machine deployments.
package bbolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/keywarden/storage"
	"github.com/jmcleod/keywarden/vault"
)

const (
	accountKey = "ACCOUNT"
	blobPrefix = "BLOB:"
)

// Store implements storage.Repository backed by a BBolt database.
// Each account gets its own bucket keyed by username.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens a BBolt database at the given path and
// returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveAccount(_ context.Context, username string, account storage.Account) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(username))
		if err != nil {
			return err
		}
		if b.Get([]byte(accountKey)) != nil {
			return fmt.Errorf("%s: %w", username, storage.ErrAccountExists)
		}
		data, err := json.Marshal(account)
		if err != nil {
			return err
		}
		return b.Put([]byte(accountKey), data)
	})
}

func (s *Store) FetchAccount(_ context.Context, username string) (storage.Account, error) {
	var account storage.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(username))
		if b == nil {
			return fmt.Errorf("account %s: %w", username, storage.ErrNotFound)
		}
		data := b.Get([]byte(accountKey))
		if data == nil {
			return fmt.Errorf("account %s: %w", username, storage.ErrNotFound)
		}
		return json.Unmarshal(data, &account)
	})
	if err != nil {
		return storage.Account{}, err
	}
	return account, nil
}

func (s *Store) PutBlob(_ context.Context, username, blobID string, blob *vault.EncryptedBlob) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(username))
		if err != nil {
			return err
		}
		data, err := json.Marshal(blob)
		if err != nil {
			return err
		}
		return b.Put([]byte(blobPrefix+blobID), data)
	})
}

func (s *Store) GetBlob(_ context.Context, username, blobID string) (*vault.EncryptedBlob, error) {
	var blob vault.EncryptedBlob
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(username))
		if b == nil {
			return fmt.Errorf("blob %s/%s: %w", username, blobID, storage.ErrNotFound)
		}
		data := b.Get([]byte(blobPrefix + blobID))
		if data == nil {
			return fmt.Errorf("blob %s/%s: %w", username, blobID, storage.ErrNotFound)
		}
		return json.Unmarshal(data, &blob)
	})
	if err != nil {
		return nil, err
	}
	return &blob, nil
}

func (s *Store) DeleteBlob(_ context.Context, username, blobID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(username))
		if b == nil || b.Get([]byte(blobPrefix+blobID)) == nil {
			return fmt.Errorf("blob %s/%s: %w", username, blobID, storage.ErrNotFound)
		}
		return b.Delete([]byte(blobPrefix + blobID))
	})
}

func (s *Store) ListBlobs(_ context.Context, username string) ([]string, error) {
	var ids []string
	prefix := []byte(blobPrefix)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(username))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			ids = append(ids, string(k[len(prefix):]))
		}
		return nil
	})
	return ids, err
}
