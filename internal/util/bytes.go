package util

func CopyBytes(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// WipeBytes best-effort zeroes the provided byte slice in place.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeEq reports whether a and b are equal without
// short-circuiting: every byte is visited and the mismatches are
// accumulated by XOR, so the running time depends only on the lengths.
// Unequal lengths return false after a full pass over the shorter input.
func ConstantTimeEq(a, b []byte) bool {
	var v byte
	if len(a) != len(b) {
		v = 1
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
