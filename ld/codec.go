package ld

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBORCodec is the deterministic CBOR encode/decode pair used for every
// CBOR-encoded value in the bucket: manifests, ops logs, and node
// trees. Centralizing the mode here keeps the encoding options in one
// place rather than scattered across call sites.
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBORCodec constructs the codec with canonical (deterministic)
// field ordering, so two encoders never disagree on the bytes for the
// same value.
func NewCBORCodec() (CBORCodec, error) {
	encOpts := cbor.CanonicalEncOptions()
	enc, err := encOpts.EncMode()
	if err != nil {
		return CBORCodec{}, fmt.Errorf("ld: building cbor encoder: %w", err)
	}
	decOpts := cbor.DecOptions{}
	dec, err := decOpts.DecMode()
	if err != nil {
		return CBORCodec{}, fmt.Errorf("ld: building cbor decoder: %w", err)
	}
	return CBORCodec{enc: enc, dec: dec}, nil
}

// Marshal encodes v using the codec's canonical encode mode.
func (c CBORCodec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

// Unmarshal decodes data into v using the codec's decode mode.
func (c CBORCodec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

// MarshalCBOR implements cbor.Marshaler so a Hash is always encoded as a
// 32-byte CBOR byte string, never as an array of integers.
func (h Hash) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(h[:])
}

// UnmarshalCBOR implements cbor.Unmarshaler, the inverse of MarshalCBOR.
func (h *Hash) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	got, err := HashFromBytes(b)
	if err != nil {
		return err
	}
	*h = got
	return nil
}
