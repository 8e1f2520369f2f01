// Package recovery generates and verifies single-use backup codes that
// substitute for a TOTP code when the authenticator is unavailable.
//
// Codes are shown to the user exactly once; only their hashes are
// stored. Verification of a single code is stateless; the single-use
// invariant lives in Batch, which tracks redemption per stored hash.
package recovery

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/jmcleod/keywarden/internal/util"
)

const (
	// DefaultBatchSize is the number of codes issued per batch.
	DefaultBatchSize = 10
	// codeChars is the number of alphabet symbols per code.
	codeChars = 12
	// groupLen is the number of symbols between separators.
	groupLen = 4
)

// codeAlphabet excludes visually confusable characters (0/O, 1/I/L) so
// codes survive transcription from a printout.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// StoredCode is the persistable form of a backup code.
type StoredCode struct {
	Hash string `json:"hash"`
	Used bool   `json:"used"`
}

// GenerateBatch creates count single-use codes from cryptographically
// secure randomness. It returns the plaintext codes for one-time
// display alongside their stored hashes. Generation is all-or-nothing:
// any failure discards the partial batch.
func GenerateBatch(count int) ([]string, []StoredCode, error) {
	if count <= 0 {
		count = DefaultBatchSize
	}

	plaintext := make([]string, count)
	stored := make([]StoredCode, count)
	for i := 0; i < count; i++ {
		raw, err := util.RandomChars(codeAlphabet, codeChars)
		if err != nil {
			return nil, nil, fmt.Errorf("generating backup code: %w", err)
		}
		plaintext[i] = formatCode(raw)
		stored[i] = StoredCode{Hash: HashCode(raw)}
	}
	return plaintext, stored, nil
}

// formatCode inserts separators every groupLen characters for
// transcription. Separators are presentation only and never affect
// hashing or verification.
func formatCode(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i += groupLen {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(raw[i : i+groupLen])
	}
	return sb.String()
}

// normalizeCode uppercases and strips everything that is not a letter
// or digit, so "ab2c-3def" and "AB2C 3DEF" hash identically.
func normalizeCode(code string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// HashCode computes the hex SHA-256 digest of the normalised code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(normalizeCode(code)))
	return util.HexEncode(sum[:])
}

// VerifyCode checks a candidate against a stored hash in constant time.
// It is stateless and will keep returning true for a correct code; the
// caller's batch bookkeeping enforces single use.
func VerifyCode(candidate, storedHash string) bool {
	return util.ConstantTimeEq([]byte(HashCode(candidate)), []byte(storedHash))
}
