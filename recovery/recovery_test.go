package recovery

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateBatch_Format(t *testing.T) {
	plaintext, stored, err := GenerateBatch(DefaultBatchSize)
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	if len(plaintext) != DefaultBatchSize || len(stored) != DefaultBatchSize {
		t.Fatalf("batch size = %d/%d, want %d", len(plaintext), len(stored), DefaultBatchSize)
	}

	seen := make(map[string]struct{})
	for _, code := range plaintext {
		parts := strings.Split(code, "-")
		if len(parts) != 3 {
			t.Errorf("code %q should have 3 dash-separated groups", code)
		}
		for _, part := range parts {
			if len(part) != 4 {
				t.Errorf("group %q in %q should be 4 characters", part, code)
			}
			for _, r := range part {
				if !strings.ContainsRune(codeAlphabet, r) {
					t.Errorf("code %q contains %q outside the alphabet", code, r)
				}
			}
		}
		if _, dup := seen[code]; dup {
			t.Errorf("duplicate code %q in batch", code)
		}
		seen[code] = struct{}{}
	}
}

func TestCodeAlphabet_NoConfusables(t *testing.T) {
	for _, r := range "0O1IL" {
		if strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("alphabet contains confusable character %q", r)
		}
	}
}

func TestVerifyCode_SeparatorAndCaseInsensitive(t *testing.T) {
	plaintext, stored, err := GenerateBatch(1)
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	code, hash := plaintext[0], stored[0].Hash

	variants := []string{
		code,
		strings.ReplaceAll(code, "-", ""),
		strings.ToLower(code),
		strings.ReplaceAll(code, "-", " "),
		"  " + code + "  ",
	}
	for _, v := range variants {
		if !VerifyCode(v, hash) {
			t.Errorf("VerifyCode(%q) should accept presentation variant", v)
		}
	}

	if VerifyCode("AAAA-BBBB-CCCC", hash) {
		t.Error("VerifyCode accepted a wrong code")
	}
}

func TestVerifyCode_Stateless(t *testing.T) {
	plaintext, stored, _ := GenerateBatch(1)
	for i := 0; i < 3; i++ {
		if !VerifyCode(plaintext[0], stored[0].Hash) {
			t.Fatal("stateless VerifyCode should keep accepting a correct code")
		}
	}
}

func TestBatch_RedeemSingleUse(t *testing.T) {
	plaintext, batch, err := Generate(3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if err := batch.Redeem(plaintext[1]); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}
	if batch.Unused() != 2 {
		t.Errorf("unused = %d, want 2", batch.Unused())
	}

	// The used entry is skipped, so replaying the same code fails.
	if err := batch.Redeem(plaintext[1]); !errors.Is(err, ErrCodeRejected) {
		t.Errorf("replayed code: expected ErrCodeRejected, got %v", err)
	}

	// Other codes stay valid.
	if err := batch.Redeem(plaintext[0]); err != nil {
		t.Errorf("unrelated code rejected: %v", err)
	}
}

func TestBatch_RedeemWrongCode(t *testing.T) {
	_, batch, _ := Generate(2)
	if err := batch.Redeem("2345-6789-ABCD"); !errors.Is(err, ErrCodeRejected) {
		t.Errorf("expected ErrCodeRejected, got %v", err)
	}
	if batch.Unused() != 2 {
		t.Error("failed redemption must not consume codes")
	}
}

func TestBatch_RegenerateInvalidatesAll(t *testing.T) {
	oldCodes, batch, err := Generate(3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	newCodes, err := batch.Regenerate(5)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if len(newCodes) != 5 || batch.Unused() != 5 {
		t.Errorf("regenerated batch size = %d/%d, want 5", len(newCodes), batch.Unused())
	}

	for _, old := range oldCodes {
		if err := batch.Redeem(old); !errors.Is(err, ErrCodeRejected) {
			t.Errorf("old code %q still redeemable after regeneration", old)
		}
	}
	if err := batch.Redeem(newCodes[0]); err != nil {
		t.Errorf("new code rejected: %v", err)
	}
}

func TestBatch_CodesReturnsCopy(t *testing.T) {
	_, batch, _ := Generate(2)
	codes := batch.Codes()
	codes[0].Used = true
	if batch.Unused() != 2 {
		t.Error("mutating the returned slice must not affect the batch")
	}
}

func TestNewBatch_RestoresPersistedState(t *testing.T) {
	plaintext, stored, _ := GenerateBatch(2)
	stored[0].Used = true

	batch := NewBatch(stored)
	if batch.Unused() != 1 {
		t.Errorf("unused = %d, want 1", batch.Unused())
	}
	if err := batch.Redeem(plaintext[0]); !errors.Is(err, ErrCodeRejected) {
		t.Error("code marked used on restore must stay unredeemable")
	}
	if err := batch.Redeem(plaintext[1]); err != nil {
		t.Errorf("unused code rejected: %v", err)
	}
}
