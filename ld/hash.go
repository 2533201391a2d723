// Package ld implements the linked-data primitives shared by every layer of
// the bucket: content hashing, links, and the typed-block codecs used to
// turn Go values into the bytes that get hashed and stored.
package ld

import (
	"encoding/hex"
	"errors"

	"lukechampine.com/blake3"
)

// HashSize is the width of a content hash in bytes.
const HashSize = 32

// Hash is the BLAKE3 digest of a blob's bytes. Equal content always
// produces an equal Hash.
type Hash [HashSize]byte

// ErrShortHash is returned when fewer than HashSize bytes are available
// to construct a Hash.
var ErrShortHash = errors.New("ld: not enough bytes for a hash")

// SumHash returns the content hash of b.
func SumHash(b []byte) Hash {
	return Hash(blake3.Sum256(b))
}

// HashFromBytes copies the first HashSize bytes of b into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) < HashSize {
		return h, ErrShortHash
	}
	copy(h[:], b[:HashSize])
	return h, nil
}

// String returns the lowercase hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
