// Package client orchestrates the zero-knowledge flows: registration
// and login against the verification server, vault record access
// through the session key, and TOTP enrolment with locally verified
// codes and backup codes.
//
// The client only ever sends the server derivation parameters, the
// authentication tag, and sealed blobs. The master key, TOTP seed and
// record plaintext never cross the wire.
package client

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jmcleod/keywarden/kdf"
	"github.com/jmcleod/keywarden/session"
	"github.com/jmcleod/keywarden/vault"
)

// Reserved blob IDs. Vault records use the item prefix so they can be
// listed without touching the TOTP material.
const (
	totpSeedBlobID = "totp-seed"
	recoveryBlobID = "recovery-codes"
	itemPrefix     = "item-"
)

// Verifier is the client's view of the authentication collaborator.
type Verifier interface {
	// Register creates an account from derivation parameters and the
	// authentication tag. The tag is derived from the password but not
	// invertible to the master key.
	Register(ctx context.Context, username string, params kdf.Params, authTag []byte) error
	// DerivationParams returns the immutable parameters recorded for an
	// account at registration.
	DerivationParams(ctx context.Context, username string) (kdf.Params, error)
	// Login exchanges a valid authentication tag for a session token.
	Login(ctx context.Context, username string, authTag []byte) (string, error)
}

// BlobStore is the client's view of encrypted-blob persistence. The
// account is implied by the authenticated transport.
type BlobStore interface {
	PutBlob(ctx context.Context, blobID string, blob *vault.EncryptedBlob) error
	GetBlob(ctx context.Context, blobID string) (*vault.EncryptedBlob, error)
	DeleteBlob(ctx context.Context, blobID string) error
	ListBlobs(ctx context.Context) ([]string, error)
}

// tokenSetter is implemented by transports that authenticate with the
// session token obtained at login.
type tokenSetter interface {
	SetToken(token string)
}

// Client drives the password-manager flows for one user at a time.
type Client struct {
	verifier Verifier
	blobs    BlobStore
	sess     *session.Session
	issuer   string
}

// Option customises client construction.
type Option func(*Client)

// WithIssuer sets the issuer label used in TOTP provisioning URIs.
func WithIssuer(issuer string) Option {
	return func(c *Client) {
		c.issuer = issuer
	}
}

// WithSession injects the session holder, for callers that share one
// session across components or need a test clock.
func WithSession(s *session.Session) Option {
	return func(c *Client) {
		c.sess = s
	}
}

// New creates a client against the given verifier and blob store.
func New(verifier Verifier, blobs BlobStore, opts ...Option) *Client {
	c := &Client{
		verifier: verifier,
		blobs:    blobs,
		issuer:   "Keywarden",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sess == nil {
		c.sess = session.New()
	}
	return c
}

// Session exposes the session holder, primarily for Active checks.
func (c *Client) Session() *session.Session {
	return c.sess
}

// Register creates a new account and opens a session for it. Fresh
// derivation parameters are generated once here and are immutable for
// the life of the account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	params, err := kdf.NewParams()
	if err != nil {
		return err
	}
	m, err := kdf.Derive(password, params)
	if err != nil {
		return err
	}
	defer m.Wipe()

	if err := c.verifier.Register(ctx, username, params, m.AuthTag); err != nil {
		return err
	}
	return c.openSession(ctx, username, m)
}

// Login derives the key material from the password and the account's
// stored parameters and opens a session. Every failure mode surfaces
// as the same ErrInvalidCredentials so the caller cannot build an
// oracle out of the distinction.
func (c *Client) Login(ctx context.Context, username, password string) error {
	params, err := c.verifier.DerivationParams(ctx, username)
	if err != nil {
		return ErrInvalidCredentials
	}
	m, err := kdf.Derive(password, params)
	if err != nil {
		return ErrInvalidCredentials
	}
	defer m.Wipe()

	return c.openSession(ctx, username, m)
}

func (c *Client) openSession(ctx context.Context, username string, m *kdf.Material) error {
	token, err := c.verifier.Login(ctx, username, m.AuthTag)
	if err != nil {
		return ErrInvalidCredentials
	}
	if ts, ok := c.blobs.(tokenSetter); ok {
		ts.SetToken(token)
	}
	c.sess.Initialize(m.Key, username, token)
	return nil
}

// Logout tears down the session and drops the key material.
func (c *Client) Logout() {
	c.sess.Clear()
	if ts, ok := c.blobs.(tokenSetter); ok {
		ts.SetToken("")
	}
}

// sessionKey fetches the live master key or reports the session gone.
// Callers must wipe the returned copy.
func (c *Client) sessionKey() ([]byte, string, error) {
	key, ok := c.sess.Key()
	if !ok {
		return nil, "", ErrNoSession
	}
	username, ok := c.sess.Username()
	if !ok {
		return nil, "", ErrNoSession
	}
	return key, username, nil
}

// isItemID reports whether a blob ID names a vault record.
func isItemID(blobID string) bool {
	return strings.HasPrefix(blobID, itemPrefix)
}

// newItemID mints a blob ID for a new vault record.
func newItemID() string {
	return itemPrefix + uuid.NewString()
}
