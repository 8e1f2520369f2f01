package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmcleod/keywarden/internal/util"
	"github.com/jmcleod/keywarden/recovery"
	"github.com/jmcleod/keywarden/storage"
	"github.com/jmcleod/keywarden/totp"
	"github.com/jmcleod/keywarden/vault"
)

// qrSize is the pixel size of generated provisioning QR codes.
const qrSize = 256

// TOTPEnrollment is returned once from EnableTOTP. BackupCodes are
// shown to the user exactly here and never again.
type TOTPEnrollment struct {
	URI         string
	QRPNG       []byte
	BackupCodes []string
}

// EnableTOTP derives the account's TOTP seed from the master key,
// stores it sealed, and issues a fresh batch of backup codes. The seed
// is deterministic, so a client that loses local state re-derives the
// same seed after the next login.
func (c *Client) EnableTOTP(ctx context.Context) (*TOTPEnrollment, error) {
	key, username, err := c.sessionKey()
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	seed, err := totp.DeriveSeed(key, username)
	if err != nil {
		return nil, err
	}

	uri, err := totp.ProvisioningURI(seed, username, c.issuer)
	if err != nil {
		return nil, err
	}
	png, err := totp.ProvisioningQR(seed, username, c.issuer, qrSize)
	if err != nil {
		return nil, err
	}

	seedBlob, err := vault.Seal([]byte(seed), key)
	if err != nil {
		return nil, err
	}
	if err := c.blobs.PutBlob(ctx, totpSeedBlobID, seedBlob); err != nil {
		return nil, err
	}

	codes, batch, err := recovery.Generate(recovery.DefaultBatchSize)
	if err != nil {
		return nil, err
	}
	if err := c.saveRecoveryBatch(ctx, key, batch); err != nil {
		return nil, err
	}

	return &TOTPEnrollment{URI: uri, QRPNG: png, BackupCodes: codes}, nil
}

// DisableTOTP removes the sealed seed and backup codes.
func (c *Client) DisableTOTP(ctx context.Context) error {
	if _, _, err := c.sessionKey(); err != nil {
		return err
	}
	if err := c.blobs.DeleteBlob(ctx, totpSeedBlobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTOTPNotEnabled
		}
		return err
	}
	// Best effort: a missing recovery blob is fine.
	if err := c.blobs.DeleteBlob(ctx, recoveryBlobID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// TOTPEnabled reports whether a sealed seed is stored for the account.
func (c *Client) TOTPEnabled(ctx context.Context) (bool, error) {
	if _, _, err := c.sessionKey(); err != nil {
		return false, err
	}
	if _, err := c.blobs.GetBlob(ctx, totpSeedBlobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TOTPCode returns the current code for the account's seed.
func (c *Client) TOTPCode(ctx context.Context) (string, error) {
	key, username, err := c.sessionKey()
	if err != nil {
		return "", err
	}
	defer util.WipeBytes(key)

	seed, err := totp.DeriveSeed(key, username)
	if err != nil {
		return "", err
	}
	return totp.Code(seed, time.Now())
}

// VerifyTOTP checks a candidate code locally, before any server round
// trip, against the seed re-derived from the session key.
func (c *Client) VerifyTOTP(ctx context.Context, code string) (bool, error) {
	key, username, err := c.sessionKey()
	if err != nil {
		return false, err
	}
	defer util.WipeBytes(key)

	seed, err := totp.DeriveSeed(key, username)
	if err != nil {
		return false, err
	}
	return totp.Verify(seed, code, time.Now()), nil
}

// RedeemBackupCode consumes a single-use backup code. The updated
// batch replaces the stored one before the call reports success, so a
// code can never be redeemed twice.
func (c *Client) RedeemBackupCode(ctx context.Context, code string) error {
	key, _, err := c.sessionKey()
	if err != nil {
		return err
	}
	defer util.WipeBytes(key)

	batch, err := c.loadRecoveryBatch(ctx, key)
	if err != nil {
		return err
	}
	if err := batch.Redeem(code); err != nil {
		return err
	}
	return c.saveRecoveryBatch(ctx, key, batch)
}

// RegenerateBackupCodes atomically replaces the whole batch and
// returns the fresh plaintext codes for one-time display.
func (c *Client) RegenerateBackupCodes(ctx context.Context) ([]string, error) {
	key, _, err := c.sessionKey()
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	batch, err := c.loadRecoveryBatch(ctx, key)
	if err != nil {
		return nil, err
	}
	codes, err := batch.Regenerate(recovery.DefaultBatchSize)
	if err != nil {
		return nil, err
	}
	if err := c.saveRecoveryBatch(ctx, key, batch); err != nil {
		return nil, err
	}
	return codes, nil
}

// UnusedBackupCodes returns how many backup codes remain redeemable.
func (c *Client) UnusedBackupCodes(ctx context.Context) (int, error) {
	key, _, err := c.sessionKey()
	if err != nil {
		return 0, err
	}
	defer util.WipeBytes(key)

	batch, err := c.loadRecoveryBatch(ctx, key)
	if err != nil {
		return 0, err
	}
	return batch.Unused(), nil
}

func (c *Client) loadRecoveryBatch(ctx context.Context, key []byte) (*recovery.Batch, error) {
	blob, err := c.blobs.GetBlob(ctx, recoveryBlobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTOTPNotEnabled
		}
		return nil, err
	}
	plaintext, err := vault.Open(blob, key)
	if err != nil {
		return nil, err
	}
	var codes []recovery.StoredCode
	if err := json.Unmarshal(plaintext, &codes); err != nil {
		return nil, fmt.Errorf("%w: %v", vault.ErrMalformedRecord, err)
	}
	return recovery.NewBatch(codes), nil
}

func (c *Client) saveRecoveryBatch(ctx context.Context, key []byte, batch *recovery.Batch) error {
	plaintext, err := json.Marshal(batch.Codes())
	if err != nil {
		return err
	}
	blob, err := vault.Seal(plaintext, key)
	if err != nil {
		return err
	}
	return c.blobs.PutBlob(ctx, recoveryBlobID, blob)
}
