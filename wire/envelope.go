package wire

import (
	"crypto/rand"
	"fmt"
	"io"

	cose "github.com/veraison/go-cose"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

// envelope is the CBOR-encoded inner payload of every signed message:
// a Kind tag plus the Kind-specific struct, itself CBOR-encoded. Go has
// no sum type, so the tag and payload travel as separate fields rather
// than as a single discriminated union.
type envelope struct {
	Kind    Kind   `cbor:"kind"`
	Payload []byte `cbor:"payload"`
}

// signEnvelope CBOR-encodes payload, wraps it in an envelope tagging
// kind, and signs the result as a COSE_Sign1 message under sk. EdDSA
// over Ed25519 means a peer's existing bucket identity key doubles as
// its wire-message signing key.
func signEnvelope(codec ld.CBORCodec, sk keys.SecretKey, kind Kind, payload any) ([]byte, error) {
	innerBytes, err := codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: encoding payload: %w", err)
	}
	envBytes, err := codec.Marshal(envelope{Kind: kind, Payload: innerBytes})
	if err != nil {
		return nil, fmt.Errorf("wire: encoding envelope: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmEd25519, sk.Ed25519())
	if err != nil {
		return nil, fmt.Errorf("wire: building signer: %w", err)
	}

	msg := &cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: cose.AlgorithmEd25519,
				cose.HeaderLabelKeyID:     sk.Public().Bytes(),
			},
		},
		Payload: envBytes,
	}
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("wire: signing message: %w", err)
	}

	out, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("wire: marshaling signed message: %w", err)
	}
	if len(out) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	return out, nil
}

// verifyEnvelope is the inverse of signEnvelope: it parses the
// COSE_Sign1 message, recovers the claimed sender from its key-id
// header, verifies the signature against that sender's Ed25519 key,
// and returns the Kind and still-CBOR-encoded inner payload for the
// caller to decode.
func verifyEnvelope(codec ld.CBORCodec, data []byte) (sender keys.PublicKey, kind Kind, payload []byte, err error) {
	if len(data) > MaxMessageSize {
		return keys.PublicKey{}, 0, nil, ErrMessageTooLarge
	}

	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return keys.PublicKey{}, 0, nil, fmt.Errorf("wire: decoding signed message: %w", err)
	}

	kidRaw, ok := msg.Headers.Protected[cose.HeaderLabelKeyID]
	if !ok {
		return keys.PublicKey{}, 0, nil, ErrMissingSender
	}
	kidBytes, ok := kidRaw.([]byte)
	if !ok {
		return keys.PublicKey{}, 0, nil, ErrMissingSender
	}
	sender, err = keys.PublicKeyFromBytes(kidBytes)
	if err != nil {
		return keys.PublicKey{}, 0, nil, fmt.Errorf("%w: %v", ErrMissingSender, err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmEd25519, sender.Ed25519())
	if err != nil {
		return keys.PublicKey{}, 0, nil, fmt.Errorf("wire: building verifier: %w", err)
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return keys.PublicKey{}, 0, nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var env envelope
	if err := codec.Unmarshal(msg.Payload, &env); err != nil {
		return keys.PublicKey{}, 0, nil, fmt.Errorf("wire: decoding envelope: %w", err)
	}
	return sender, env.Kind, env.Payload, nil
}

// readAllCapped reads all of r, failing with ErrMessageTooLarge if more
// than MaxMessageSize bytes are produced — used for every read path
// except the raw FetchBlob reply.
func readAllCapped(r io.Reader) ([]byte, error) {
	limited := io.LimitReader(r, MaxMessageSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("wire: reading message: %w", err)
	}
	if len(data) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	return data, nil
}
