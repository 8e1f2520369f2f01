package kdf

import (
	"bytes"
	"errors"
	"testing"
)

// Low-but-valid parameters keep the test suite fast while staying above
// the policy floor.
func testParams() Params {
	return Params{Salt: make([]byte, MinSaltLen), Iterations: MinIterations}
}

func TestDerive_Deterministic(t *testing.T) {
	p := testParams()

	m1, err := Derive("Tr0ub4dor&3", p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	m2, err := Derive("Tr0ub4dor&3", p)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if !bytes.Equal(m1.Key, m2.Key) {
		t.Error("key not deterministic for identical inputs")
	}
	if !bytes.Equal(m1.AuthTag, m2.AuthTag) {
		t.Error("auth tag not deterministic for identical inputs")
	}
	if len(m1.Key) != KeyLen {
		t.Errorf("key length = %d, want %d", len(m1.Key), KeyLen)
	}
	if len(m1.AuthTag) != KeyLen {
		t.Errorf("auth tag length = %d, want %d", len(m1.AuthTag), KeyLen)
	}
}

func TestDerive_KeyAndTagDiffer(t *testing.T) {
	m, err := Derive("correct horse battery staple", testParams())
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if bytes.Equal(m.Key, m.AuthTag) {
		t.Error("key and auth tag must differ")
	}
}

func TestDerive_PasswordSensitivity(t *testing.T) {
	p := testParams()
	m1, _ := Derive("password-one", p)
	m2, _ := Derive("password-two", p)
	if bytes.Equal(m1.Key, m2.Key) {
		t.Error("different passwords produced the same key")
	}
}

func TestDerive_SaltSensitivity(t *testing.T) {
	p1 := testParams()
	p2 := testParams()
	p2.Salt = bytes.Repeat([]byte{0xAA}, MinSaltLen)

	m1, _ := Derive("same password", p1)
	m2, _ := Derive("same password", p2)
	if bytes.Equal(m1.Key, m2.Key) {
		t.Error("different salts produced the same key")
	}
}

func TestDerive_NormalizesUnicode(t *testing.T) {
	p := testParams()
	// Same passphrase in precomposed and decomposed forms.
	m1, _ := Derive("café", p)
	m2, _ := Derive("café", p)
	if !bytes.Equal(m1.Key, m2.Key) {
		t.Error("NFKD-equivalent passwords must derive the same key")
	}
}

func TestDerive_WeakParameters(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"LowIterations", Params{Salt: make([]byte, MinSaltLen), Iterations: MinIterations - 1}},
		{"ZeroIterations", Params{Salt: make([]byte, MinSaltLen), Iterations: 0}},
		{"ShortSalt", Params{Salt: make([]byte, MinSaltLen-1), Iterations: MinIterations}},
		{"NilSalt", Params{Salt: nil, Iterations: MinIterations}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive("irrelevant", tt.p)
			if !errors.Is(err, ErrWeakParameters) {
				t.Errorf("expected ErrWeakParameters, got %v", err)
			}
		})
	}
}

func TestNewParams(t *testing.T) {
	p, err := NewParams()
	if err != nil {
		t.Fatalf("NewParams failed: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("fresh params should validate: %v", err)
	}
	p2, _ := NewParams()
	if bytes.Equal(p.Salt, p2.Salt) {
		t.Error("two fresh salts should not collide")
	}
}

func TestMaterial_Wipe(t *testing.T) {
	m, err := Derive("wipe me", testParams())
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	m.Wipe()
	for _, b := range m.Key {
		if b != 0 {
			t.Fatal("key not wiped")
		}
	}
	for _, b := range m.AuthTag {
		if b != 0 {
			t.Fatal("auth tag not wiped")
		}
	}
}
