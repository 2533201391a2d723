// Package keys implements the Ed25519 identity keys used to name and
// authenticate peers, plus the Ed25519-to-X25519 conversion used by
// secretshare to perform ECDH against those same identities.
package keys

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"sort"

	"filippo.io/edwards25519"
	"github.com/fxamacker/cbor/v2"

	"github.com/meshvault/meshvault/ld"
)

// PublicKey is a 32-byte Ed25519 public key, used everywhere in the
// bucket as a peer and principal identifier.
type PublicKey [ed25519.PublicKeySize]byte

// SecretKey is a 32-byte Ed25519 private key seed.
type SecretKey [ed25519.SeedSize]byte

// ErrBadKeyLength is returned when raw bytes of the wrong length are
// used to construct a PublicKey or SecretKey.
var ErrBadKeyLength = errors.New("keys: wrong key length")

// ErrInvalidPEM is returned when the input holds no PEM block or the
// block does not carry the "PRIVATE KEY" tag. A block of the wrong
// length yields ErrBadKeyLength.
var ErrInvalidPEM = errors.New("keys: invalid PEM private key")

// Generate creates a new random Ed25519 keypair.
func Generate() (PublicKey, SecretKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, SecretKey{}, fmt.Errorf("keys: generate: %w", err)
	}
	var pk PublicKey
	var sk SecretKey
	copy(pk[:], pub)
	copy(sk[:], priv.Seed())
	return pk, sk, nil
}

// PublicKeyFromBytes validates and wraps raw public key bytes.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != len(pk) {
		return pk, ErrBadKeyLength
	}
	copy(pk[:], b)
	return pk, nil
}

// Bytes returns the raw public key bytes.
func (pk PublicKey) Bytes() []byte { return pk[:] }

// String renders the public key as lowercase hex, the canonical form
// used as a map key in Manifest.Shares.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

// PublicKeyFromHex parses the hex string produced by String.
func PublicKeyFromHex(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("keys: decoding hex public key: %w", err)
	}
	return PublicKeyFromBytes(b)
}

// Less orders public keys lexicographically on their raw bytes; this is
// the tie-breaker ordering used by PathOperation.OpId and anywhere else
// that needs a deterministic lex-on-bytes comparison between keys.
func (pk PublicKey) Less(o PublicKey) bool {
	for i := range pk {
		if pk[i] != o[i] {
			return pk[i] < o[i]
		}
	}
	return false
}

// SortPublicKeys sorts keys in place using Less.
func SortPublicKeys(keys []PublicKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// Ed25519 returns the standard-library representation of the public key.
func (pk PublicKey) Ed25519() ed25519.PublicKey {
	return ed25519.PublicKey(pk[:])
}

// SecretKeyFromBytes validates and wraps a raw 32-byte seed.
func SecretKeyFromBytes(b []byte) (SecretKey, error) {
	var sk SecretKey
	if len(b) != len(sk) {
		return sk, ErrBadKeyLength
	}
	copy(sk[:], b)
	return sk, nil
}

// Ed25519 expands the seed into the standard-library private key form
// (seed || public key), as required by crypto/ed25519's Sign/Verify.
func (sk SecretKey) Ed25519() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(sk[:])
}

// Public derives the public key corresponding to sk.
func (sk SecretKey) Public() PublicKey {
	priv := sk.Ed25519()
	var pk PublicKey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return pk
}

// Sign signs msg with sk, returning a 64-byte Ed25519 signature.
func (sk SecretKey) Sign(msg []byte) []byte {
	return ed25519.Sign(sk.Ed25519(), msg)
}

// Verify checks sig against msg under pk.
func (pk PublicKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(pk.Ed25519(), msg, sig)
}

// pemBlockType is the PEM block tag used for serialized secret keys.
const pemBlockType = "PRIVATE KEY"

// MarshalPEM encodes sk as a PEM block with tag "PRIVATE KEY" whose
// contents are exactly the 32 raw seed bytes.
func (sk SecretKey) MarshalPEM() []byte {
	block := &pem.Block{Type: pemBlockType, Bytes: sk[:]}
	return pem.EncodeToMemory(block)
}

// ParseSecretKeyPEM is the inverse of MarshalPEM.
func ParseSecretKeyPEM(data []byte) (SecretKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return SecretKey{}, ErrInvalidPEM
	}
	return SecretKeyFromBytes(block.Bytes)
}

// ToX25519 converts an Ed25519 secret key seed into the corresponding
// X25519 private scalar via RFC 8032 §5.1.5 clamping of SHA-512(seed),
// then wraps it as a crypto/ecdh X25519 private key ready for ECDH.
func (sk SecretKey) ToX25519() (*ecdh.PrivateKey, error) {
	h := sha512.Sum512(sk[:])
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	priv, err := ecdh.X25519().NewPrivateKey(h[:32])
	if err != nil {
		return nil, fmt.Errorf("keys: deriving x25519 private key: %w", err)
	}
	return priv, nil
}

// ToX25519 converts an Ed25519 public key (an Edwards-curve point) into
// its birationally-equivalent Montgomery-curve X25519 public key.
func (pk PublicKey) ToX25519() (*ecdh.PublicKey, error) {
	p, err := new(edwards25519.Point).SetBytes(pk[:])
	if err != nil {
		return nil, fmt.Errorf("keys: %w: invalid ed25519 point", err)
	}
	pub, err := ecdh.X25519().NewPublicKey(p.BytesMontgomery())
	if err != nil {
		return nil, fmt.Errorf("keys: deriving x25519 public key: %w", err)
	}
	return pub, nil
}

// Hash returns the content hash of the public key's raw bytes. Useful
// wherever a PublicKey needs to participate in content-addressed
// structures alongside ld.Hash values.
func (pk PublicKey) Hash() ld.Hash {
	return ld.SumHash(pk[:])
}

// MarshalCBOR encodes pk as a 32-byte CBOR byte string. A fixed-size Go
// array does not get this treatment from fxamacker/cbor by default (it
// falls back to a CBOR array of integers), so every fixed-size key or
// hash type in this codebase implements it explicitly — see
// ld.Hash.MarshalCBOR for the same pattern.
func (pk PublicKey) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(pk[:])
}

// UnmarshalCBOR is the inverse of MarshalCBOR.
func (pk *PublicKey) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) != len(pk) {
		return ErrBadKeyLength
	}
	copy(pk[:], b)
	return nil
}
