// Package postgres implements storage.Repository backed by PostgreSQL.
//
// Blob fields are stored as individual BYTEA columns rather than JSON
// so nonce and ciphertext use native binary storage. The (username,
// blob_id) composite key mirrors the key space of the BBolt and
// in-memory backends.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcleod/keywarden/storage"
	"github.com/jmcleod/keywarden/vault"
)

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given pgx connection
// pool.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryFromDSN creates a connection pool from a DSN string,
// ensures the schema exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(pool), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) SaveAccount(ctx context.Context, username string, account storage.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (username, salt, iterations, auth_hash) VALUES ($1, $2, $3, $4)`,
		username, account.Params.Salt, account.Params.Iterations, account.AuthHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", username, storage.ErrAccountExists)
	}
	return err
}

func (s *Store) FetchAccount(ctx context.Context, username string) (storage.Account, error) {
	var a storage.Account
	err := s.pool.QueryRow(ctx,
		`SELECT salt, iterations, auth_hash FROM accounts WHERE username = $1`,
		username).Scan(&a.Params.Salt, &a.Params.Iterations, &a.AuthHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Account{}, fmt.Errorf("account %s: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Account{}, err
	}
	return a, nil
}

func (s *Store) PutBlob(ctx context.Context, username, blobID string, blob *vault.EncryptedBlob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blobs (username, blob_id, nonce, ciphertext)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username, blob_id)
		 DO UPDATE SET nonce = $3, ciphertext = $4, updated_at = now()`,
		username, blobID, blob.Nonce, blob.Ciphertext)
	return err
}

func (s *Store) GetBlob(ctx context.Context, username, blobID string) (*vault.EncryptedBlob, error) {
	var blob vault.EncryptedBlob
	err := s.pool.QueryRow(ctx,
		`SELECT nonce, ciphertext FROM blobs WHERE username = $1 AND blob_id = $2`,
		username, blobID).Scan(&blob.Nonce, &blob.Ciphertext)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("blob %s/%s: %w", username, blobID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &blob, nil
}

func (s *Store) DeleteBlob(ctx context.Context, username, blobID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM blobs WHERE username = $1 AND blob_id = $2`,
		username, blobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blob %s/%s: %w", username, blobID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListBlobs(ctx context.Context, username string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT blob_id FROM blobs WHERE username = $1`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
