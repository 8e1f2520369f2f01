package vault

import "errors"

var (
	// ErrEncryptionFailure indicates an underlying primitive error while
	// sealing. Any byte sequence is valid plaintext, so this only occurs
	// on environment problems (e.g. the system entropy source failing).
	ErrEncryptionFailure = errors.New("encryption failure")
	// ErrAuthenticationFailure indicates the GCM integrity tag did not
	// verify. It covers both a wrong key and tampered data; callers must
	// not be able to distinguish the two.
	ErrAuthenticationFailure = errors.New("authentication failure")
	// ErrMalformedRecord indicates decrypted bytes that do not parse as
	// a credential record. Kept distinct from ErrAuthenticationFailure
	// so diagnostics can tell "decrypted fine, content invalid" from
	// "did not decrypt".
	ErrMalformedRecord = errors.New("malformed record")
)
