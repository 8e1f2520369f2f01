package recovery

import "errors"

// ErrCodeRejected indicates a candidate that matched no unused code.
// Used codes are skipped before hashing, so a replayed code fails the
// same way as a wrong one.
var ErrCodeRejected = errors.New("backup code rejected")

// Batch owns the single-use bookkeeping over a set of stored codes.
// A batch is replaced atomically on regeneration; a mix of old and new
// codes is never observable.
type Batch struct {
	codes []StoredCode
}

// NewBatch wraps previously persisted stored codes.
func NewBatch(codes []StoredCode) *Batch {
	return &Batch{codes: copyCodes(codes)}
}

// Generate creates a fresh batch of count codes, returning the
// plaintext for one-time display.
func Generate(count int) ([]string, *Batch, error) {
	plaintext, stored, err := GenerateBatch(count)
	if err != nil {
		return nil, nil, err
	}
	return plaintext, &Batch{codes: stored}, nil
}

// Codes returns a copy of the stored codes for persistence.
func (b *Batch) Codes() []StoredCode {
	return copyCodes(b.codes)
}

// Unused returns the number of codes not yet redeemed.
func (b *Batch) Unused() int {
	n := 0
	for _, c := range b.codes {
		if !c.Used {
			n++
		}
	}
	return n
}

// Redeem marks the matching unused code as used. Each code transitions
// used=false→true exactly once; entries already used are never
// re-checked.
func (b *Batch) Redeem(candidate string) error {
	for i := range b.codes {
		if b.codes[i].Used {
			continue
		}
		if VerifyCode(candidate, b.codes[i].Hash) {
			b.codes[i].Used = true
			return nil
		}
	}
	return ErrCodeRejected
}

// Regenerate atomically replaces the entire batch with count fresh
// codes, invalidating every previous code. On failure the existing
// batch is left untouched.
func (b *Batch) Regenerate(count int) ([]string, error) {
	plaintext, stored, err := GenerateBatch(count)
	if err != nil {
		return nil, err
	}
	b.codes = stored
	return plaintext, nil
}

func copyCodes(codes []StoredCode) []StoredCode {
	out := make([]StoredCode, len(codes))
	copy(out, codes)
	return out
}
