package idempotency

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies the request a key was first used with.
type Fingerprint [blake2b.Size256]byte

// FingerprintOf hashes an operation name and its arguments. Parts are
// length-prefixed so ("ab", "c") and ("a", "bc") differ.
func FingerprintOf(op string, args ...string) Fingerprint {
	h, _ := blake2b.New256(nil)
	var n [8]byte
	for _, part := range append([]string{op}, args...) {
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}
