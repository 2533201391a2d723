// Package secret implements the per-blob symmetric encryption used
// throughout the bucket: every Node and every data blob is encrypted
// under its own Secret, and the ops log (when present) under the root
// entry's Secret.
package secret

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/meshvault/meshvault/ld"
)

// Size is the width of a Secret in bytes.
const Size = 32

// nonceSize is the ChaCha20-Poly1305 nonce width.
const nonceSize = chacha20poly1305.NonceSize

// Secret is a 256-bit symmetric key.
type Secret [Size]byte

// ErrDecryptFailed is the single externally-visible error for any
// decryption failure — AEAD tag mismatch or plaintext-hash mismatch are
// deliberately indistinguishable from the outside.
var ErrDecryptFailed = errors.New("secret: decrypt failed")

// ErrCiphertextTooShort is returned when the input is too short to even
// contain a nonce.
var ErrCiphertextTooShort = errors.New("secret: ciphertext shorter than a nonce")

// Generate draws a new random Secret.
func Generate() (Secret, error) {
	var s Secret
	if _, err := rand.Read(s[:]); err != nil {
		return s, fmt.Errorf("secret: generating random key: %w", err)
	}
	return s, nil
}

// FromBytes wraps raw key bytes as a Secret.
func FromBytes(b []byte) (Secret, error) {
	var s Secret
	if len(b) != Size {
		return s, fmt.Errorf("secret: want %d bytes, got %d", Size, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// Encrypt binds the plaintext's content hash into the ciphertext:
//
//	h    <- BLAKE3(plaintext)
//	body <- h || plaintext
//	ct   <- ChaCha20Poly1305(key=s, nonce).Seal(body)
//	out  <- nonce || ct
func (s Secret) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s[:])
	if err != nil {
		return nil, fmt.Errorf("secret: building aead: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("secret: generating nonce: %w", err)
	}

	h := ld.SumHash(plaintext)
	body := make([]byte, 0, len(h)+len(plaintext))
	body = append(body, h[:]...)
	body = append(body, plaintext...)

	ct := aead.Seal(nil, nonce, body, nil)

	out := make([]byte, 0, len(nonce)+len(ct))
	out = append(out, nonce...)
	out = append(out, ct...)
	return out, nil
}

// Decrypt is the inverse of Encrypt. It verifies the AEAD tag and then
// independently re-verifies the prepended content hash; either failure
// surfaces as the single opaque ErrDecryptFailed.
func (s Secret) Decrypt(data []byte) ([]byte, error) {
	if len(data) < nonceSize {
		return nil, ErrCiphertextTooShort
	}

	aead, err := chacha20poly1305.New(s[:])
	if err != nil {
		return nil, fmt.Errorf("secret: building aead: %w", err)
	}

	nonce, ct := data[:nonceSize], data[nonceSize:]
	body, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	if len(body) < ld.HashSize {
		return nil, ErrDecryptFailed
	}

	wantHash, plaintext := body[:ld.HashSize], body[ld.HashSize:]
	gotHash := ld.SumHash(plaintext)
	if string(wantHash) != string(gotHash[:]) {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

// ExtractPlaintextHash returns the 32-byte plaintext-hash prefix carried
// inside an Encrypt output. It opens the whole AEAD body to reach it but
// does not re-check the hash against the plaintext.
func (s Secret) ExtractPlaintextHash(data []byte) (ld.Hash, error) {
	if len(data) < nonceSize {
		return ld.Hash{}, ErrCiphertextTooShort
	}

	aead, err := chacha20poly1305.New(s[:])
	if err != nil {
		return ld.Hash{}, fmt.Errorf("secret: building aead: %w", err)
	}

	nonce, ct := data[:nonceSize], data[nonceSize:]
	body, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return ld.Hash{}, ErrDecryptFailed
	}
	if len(body) < ld.HashSize {
		return ld.Hash{}, ErrDecryptFailed
	}
	return ld.HashFromBytes(body[:ld.HashSize])
}

// Bytes returns the raw 32 key bytes.
func (s Secret) Bytes() []byte { return s[:] }

// MarshalCBOR implements cbor.Marshaler so a Secret is always encoded as
// a 32-byte CBOR byte string.
func (s Secret) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(s[:])
}

// UnmarshalCBOR implements cbor.Unmarshaler, the inverse of MarshalCBOR.
func (s *Secret) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	got, err := FromBytes(b)
	if err != nil {
		return fmt.Errorf("secret: %w", err)
	}
	*s = got
	return nil
}
