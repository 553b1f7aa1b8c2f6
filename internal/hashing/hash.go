// Package hashing computes content fingerprints for deduplication.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Prefix tags full digests so future schemes can coexist alongside sha256.
const Prefix = "sha256-"

// fingerprintLen is the number of hex characters kept by Fingerprint.
const fingerprintLen = 16

// Hash returns the tagged SHA-256 digest of content, formatted as
// "sha256-<64 hex chars>". Two byte-identical inputs always produce the
// same digest; distinct real-world inputs essentially never collide.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return Prefix + hex.EncodeToString(sum[:])
}

// HashString is Hash for string input.
func HashString(content string) string {
	return Hash([]byte(content))
}

// Fingerprint returns the first 16 hex characters of the SHA-256 digest.
// It is a fast dedup-by-likelihood key, not an integrity guarantee: use
// Hash wherever collisions must be ruled out.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
