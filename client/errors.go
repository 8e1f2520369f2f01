package client

import "errors"

var (
	// ErrInvalidCredentials is the single error for every
	// authentication failure, regardless of cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession indicates no active (non-expired) session.
	ErrNoSession = errors.New("no active session")
	// ErrTOTPNotEnabled indicates TOTP material is not enrolled for the
	// account.
	ErrTOTPNotEnabled = errors.New("TOTP is not enabled")
	// ErrInvalidItemID indicates a blob ID that does not name a vault
	// record. Reserved blobs are not reachable through the credential
	// operations.
	ErrInvalidItemID = errors.New("invalid vault item id")
)
