package vault

import (
	"encoding/json"
	"fmt"
)

// Record is the plaintext form of a stored credential. URI is optional;
// an empty URI round-trips losslessly.
type Record struct {
	Label  string `json:"label"`
	Login  string `json:"login"`
	Secret string `json:"secret"`
	URI    string `json:"uri,omitempty"`
}

// Encode serialises the record to the byte form consumed by Seal.
func (r Record) Encode() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return b, nil
}

// DecodeRecord parses bytes produced by Encode. A parse failure means
// the caller decrypted with the wrong key or the stored item is
// corrupted; it must never be conflated with ErrAuthenticationFailure.
func DecodeRecord(b []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return r, nil
}

// SealRecord encodes and encrypts a record in one step.
func SealRecord(rec Record, key []byte) (*EncryptedBlob, error) {
	plaintext, err := rec.Encode()
	if err != nil {
		return nil, err
	}
	return Seal(plaintext, key)
}

// OpenRecord decrypts and decodes a record in one step. Both failure
// modes are fatal for the record, but they stay distinguishable through
// errors.Is.
func OpenRecord(blob *EncryptedBlob, key []byte) (Record, error) {
	plaintext, err := Open(blob, key)
	if err != nil {
		return Record{}, err
	}
	return DecodeRecord(plaintext)
}
