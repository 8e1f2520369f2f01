package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmcleod/keywarden/kdf"
	"github.com/jmcleod/keywarden/storage"
	"github.com/jmcleod/keywarden/vault"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewRepositoryFromFile(filepath.Join(t.TempDir(), "keywarden.db"), nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAccount() storage.Account {
	return storage.Account{
		Params:   kdf.Params{Salt: make([]byte, kdf.MinSaltLen), Iterations: 150_000},
		AuthHash: []byte("0123456789abcdef0123456789abcdef"),
	}
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.FetchAccount(ctx, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.SaveAccount(ctx, "alice", testAccount()); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	got, err := s.FetchAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("FetchAccount failed: %v", err)
	}
	want := testAccount()
	if got.Params.Iterations != want.Params.Iterations || len(got.Params.Salt) != len(want.Params.Salt) {
		t.Errorf("params mismatch: %+v", got.Params)
	}
	if string(got.AuthHash) != string(want.AuthHash) {
		t.Errorf("auth hash mismatch: %q", got.AuthHash)
	}

	if err := s.SaveAccount(ctx, "alice", testAccount()); !errors.Is(err, storage.ErrAccountExists) {
		t.Errorf("expected ErrAccountExists, got %v", err)
	}
}

func TestBlobLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	blob := &vault.EncryptedBlob{Ciphertext: []byte("sealed"), Nonce: make([]byte, 12)}

	if err := s.PutBlob(ctx, "alice", "item-1", blob); err != nil {
		t.Fatalf("PutBlob failed: %v", err)
	}
	got, err := s.GetBlob(ctx, "alice", "item-1")
	if err != nil {
		t.Fatalf("GetBlob failed: %v", err)
	}
	if string(got.Ciphertext) != "sealed" || len(got.Nonce) != 12 {
		t.Errorf("blob mismatch: %+v", got)
	}

	// Overwrite is allowed for blobs (unlike params).
	blob2 := &vault.EncryptedBlob{Ciphertext: []byte("resealed"), Nonce: make([]byte, 12)}
	if err := s.PutBlob(ctx, "alice", "item-1", blob2); err != nil {
		t.Fatalf("PutBlob overwrite failed: %v", err)
	}
	got, _ = s.GetBlob(ctx, "alice", "item-1")
	if string(got.Ciphertext) != "resealed" {
		t.Error("overwrite not visible")
	}

	if err := s.DeleteBlob(ctx, "alice", "item-1"); err != nil {
		t.Fatalf("DeleteBlob failed: %v", err)
	}
	if _, err := s.GetBlob(ctx, "alice", "item-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListBlobs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	blob := &vault.EncryptedBlob{Ciphertext: []byte{1}, Nonce: make([]byte, 12)}

	for _, id := range []string{"a", "b", "c"} {
		if err := s.PutBlob(ctx, "alice", id, blob); err != nil {
			t.Fatalf("PutBlob failed: %v", err)
		}
	}
	// The account key must not leak into the blob listing.
	if err := s.SaveAccount(ctx, "alice", testAccount()); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}

	ids, err := s.ListBlobs(ctx, "alice")
	if err != nil {
		t.Fatalf("ListBlobs failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("ListBlobs = %v, want 3 entries", ids)
	}

	ids, err = s.ListBlobs(ctx, "nobody")
	if err != nil || len(ids) != 0 {
		t.Errorf("ListBlobs for unknown account = %v, %v", ids, err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keywarden.db")

	s, err := NewRepositoryFromFile(path, nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	blob := &vault.EncryptedBlob{Ciphertext: []byte("durable"), Nonce: make([]byte, 12)}
	if err := s.PutBlob(ctx, "alice", "item", blob); err != nil {
		t.Fatalf("PutBlob failed: %v", err)
	}
	if err := s.SaveAccount(ctx, "alice", testAccount()); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := NewRepositoryFromFile(path, nil)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()
	got, err := s2.GetBlob(ctx, "alice", "item")
	if err != nil || string(got.Ciphertext) != "durable" {
		t.Errorf("blob not durable across reopen: %v", err)
	}
	account, err := s2.FetchAccount(ctx, "alice")
	if err != nil || string(account.AuthHash) != string(testAccount().AuthHash) {
		t.Errorf("account not durable across reopen: %v", err)
	}
}
