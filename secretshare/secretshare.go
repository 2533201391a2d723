// Package secretshare implements the recipient-wrapped Secret: an
// ephemeral X25519 ECDH exchange against a recipient's converted
// Ed25519 public key, used as the KEK for an RFC 3394 AES Key Wrap of
// the bucket Secret.
package secretshare

import (
	"crypto/aes"
	"crypto/ecdh"
	"errors"
	"fmt"

	aeskeywrap "github.com/NickBall/go-aes-key-wrap"
	"github.com/fxamacker/cbor/v2"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/secret"
)

// Size is the fixed wire width of a SecretShare: a 32-byte ephemeral
// Ed25519 public key followed by the 40-byte AES-KW wrap of a 32-byte
// secret (32 + 8 bytes of RFC 3394 integrity overhead).
const Size = 32 + 40

// ErrBadShareLength is returned when bytes of the wrong length are
// parsed as a SecretShare.
var ErrBadShareLength = errors.New("secretshare: wrong share length")

// SecretShare is a Secret wrapped for a single recipient public key.
type SecretShare [Size]byte

// New wraps s for recipient using a fresh ephemeral Ed25519/X25519
// keypair:
//
//  1. generate an ephemeral Ed25519 keypair
//  2. convert the ephemeral private key and recipient's public key to
//     X25519
//  3. ECDH to derive a shared secret, used directly as the AES-KW KEK
//  4. AES Key Wrap s under that KEK
func New(s secret.Secret, recipient keys.PublicKey) (SecretShare, error) {
	_, ephSK, err := keys.Generate()
	if err != nil {
		return SecretShare{}, fmt.Errorf("secretshare: generating ephemeral keypair: %w", err)
	}
	ephPub := ephSK.Public()

	ephX, err := ephSK.ToX25519()
	if err != nil {
		return SecretShare{}, fmt.Errorf("secretshare: converting ephemeral key: %w", err)
	}
	recipientX, err := recipient.ToX25519()
	if err != nil {
		return SecretShare{}, fmt.Errorf("secretshare: converting recipient key: %w", err)
	}

	kek, err := ephX.ECDH(recipientX)
	if err != nil {
		return SecretShare{}, fmt.Errorf("secretshare: ecdh: %w", err)
	}

	kekBlock, err := aes.NewCipher(kek)
	if err != nil {
		return SecretShare{}, fmt.Errorf("secretshare: building kek cipher: %w", err)
	}

	wrapped, err := aeskeywrap.Wrap(kekBlock, s.Bytes())
	if err != nil {
		return SecretShare{}, fmt.Errorf("secretshare: wrapping secret: %w", err)
	}
	if len(wrapped) != Size-len(ephPub) {
		return SecretShare{}, fmt.Errorf("secretshare: unexpected wrapped length %d", len(wrapped))
	}

	var out SecretShare
	copy(out[:len(ephPub)], ephPub[:])
	copy(out[len(ephPub):], wrapped)
	return out, nil
}

// Recover reverses New using the recipient's secret key. It returns an
// error (never panics) if mine does not correspond to the public key
// the share was wrapped for — the AES-KW integrity check fails in that
// case because the derived KEK is wrong.
func (sh SecretShare) Recover(mine keys.SecretKey) (secret.Secret, error) {
	ephPubBytes := sh[:32]
	wrapped := sh[32:]

	ephX25519, err := x25519PublicKeyFromEd25519Bytes(ephPubBytes)
	if err != nil {
		return secret.Secret{}, fmt.Errorf("secretshare: parsing ephemeral public key: %w", err)
	}

	myX, err := mine.ToX25519()
	if err != nil {
		return secret.Secret{}, fmt.Errorf("secretshare: converting recipient secret key: %w", err)
	}

	kek, err := myX.ECDH(ephX25519)
	if err != nil {
		return secret.Secret{}, fmt.Errorf("secretshare: ecdh: %w", err)
	}

	kekBlock, err := aes.NewCipher(kek)
	if err != nil {
		return secret.Secret{}, fmt.Errorf("secretshare: building kek cipher: %w", err)
	}

	raw, err := aeskeywrap.Unwrap(kekBlock, wrapped)
	if err != nil {
		return secret.Secret{}, fmt.Errorf("secretshare: unwrapping secret: %w", err)
	}
	return secret.FromBytes(raw)
}

// x25519PublicKeyFromEd25519Bytes converts the raw bytes of an ephemeral
// Ed25519 public key (as stored in the share) into an X25519 public key.
func x25519PublicKeyFromEd25519Bytes(b []byte) (*ecdh.PublicKey, error) {
	pk, err := keys.PublicKeyFromBytes(b)
	if err != nil {
		return nil, err
	}
	return pk.ToX25519()
}

// Bytes returns the raw 72 wire bytes.
func (sh SecretShare) Bytes() []byte { return sh[:] }

// FromBytes validates and wraps raw share bytes.
func FromBytes(b []byte) (SecretShare, error) {
	var sh SecretShare
	if len(b) != Size {
		return sh, ErrBadShareLength
	}
	copy(sh[:], b)
	return sh, nil
}

// MarshalCBOR encodes sh as a 72-byte CBOR byte string (see
// keys.PublicKey.MarshalCBOR for why this is written explicitly).
func (sh SecretShare) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(sh[:])
}

// UnmarshalCBOR is the inverse of MarshalCBOR.
func (sh *SecretShare) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) != Size {
		return ErrBadShareLength
	}
	copy(sh[:], b)
	return nil
}
