// Package cas provides content digests and a content-addressed blob store
// for rendered chart output.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"regexp"

	"github.com/zeebo/blake3"
)

// hexPattern matches a lowercase 256-bit hex digest (64 characters).
var hexPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Digest holds both digests of one blob.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Sum computes both digests of data.
func Sum(data []byte) Digest {
	return Digest{SHA256: Hash(data), BLAKE3: Blake3Hash(data)}
}

// Hash computes the SHA-256 digest of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Hash computes the BLAKE3 digest of data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// NewBlake3 returns a streaming BLAKE3 hasher with a 32-byte output.
func NewBlake3() hash.Hash {
	return blake3.New()
}

// HexSum finalises h as a lowercase hex string.
func HexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// ValidHash reports whether s is a well-formed digest string.
func ValidHash(s string) bool {
	return hexPattern.MatchString(s)
}
