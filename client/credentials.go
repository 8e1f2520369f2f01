package client

import (
	"context"

	"github.com/jmcleod/keywarden/internal/util"
	"github.com/jmcleod/keywarden/vault"
)

// PutCredential seals a vault record under the session key and stores
// it, returning the new item ID.
func (c *Client) PutCredential(ctx context.Context, rec vault.Record) (string, error) {
	key, _, err := c.sessionKey()
	if err != nil {
		return "", err
	}
	defer util.WipeBytes(key)

	blob, err := vault.SealRecord(rec, key)
	if err != nil {
		return "", err
	}
	id := newItemID()
	if err := c.blobs.PutBlob(ctx, id, blob); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateCredential re-seals an existing record in place. A fresh nonce
// is generated; the old ciphertext is overwritten.
func (c *Client) UpdateCredential(ctx context.Context, id string, rec vault.Record) error {
	if !isItemID(id) {
		return ErrInvalidItemID
	}
	key, _, err := c.sessionKey()
	if err != nil {
		return err
	}
	defer util.WipeBytes(key)

	blob, err := vault.SealRecord(rec, key)
	if err != nil {
		return err
	}
	return c.blobs.PutBlob(ctx, id, blob)
}

// GetCredential fetches and opens a vault record. An authentication
// failure means wrong key or tampered data; a malformed record means
// it decrypted but did not parse. Callers must not conflate the two in
// diagnostics.
func (c *Client) GetCredential(ctx context.Context, id string) (vault.Record, error) {
	if !isItemID(id) {
		return vault.Record{}, ErrInvalidItemID
	}
	key, _, err := c.sessionKey()
	if err != nil {
		return vault.Record{}, err
	}
	defer util.WipeBytes(key)

	blob, err := c.blobs.GetBlob(ctx, id)
	if err != nil {
		return vault.Record{}, err
	}
	return vault.OpenRecord(blob, key)
}

// DeleteCredential removes a vault record. Reserved blobs such as the
// sealed TOTP material cannot be deleted through this path.
func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	if !isItemID(id) {
		return ErrInvalidItemID
	}
	if _, _, err := c.sessionKey(); err != nil {
		return err
	}
	return c.blobs.DeleteBlob(ctx, id)
}

// ListCredentials returns the IDs of stored vault records, excluding
// reserved blobs such as the sealed TOTP material.
func (c *Client) ListCredentials(ctx context.Context) ([]string, error) {
	if _, _, err := c.sessionKey(); err != nil {
		return nil, err
	}
	all, err := c.blobs.ListBlobs(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, len(all))
	for _, id := range all {
		if isItemID(id) {
			items = append(items, id)
		}
	}
	return items, nil
}
