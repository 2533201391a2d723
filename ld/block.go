package ld

// LinkFor computes the Link that addresses bytes encoded under codec.
// Callers are expected to have already produced the final on-wire bytes
// (CBOR-encoded, or already-encrypted raw) before calling this — LinkFor
// never transforms the bytes, it only hashes them.
func LinkFor(codec Codec, bytes []byte) Link {
	return Link{Codec: codec, Hash: SumHash(bytes)}
}

// EncodeTyped CBOR-encodes v with the given codec and returns both the
// bytes and the Link that addresses them, so callers can store the bytes
// under the returned hash in one step.
func EncodeTyped(c CBORCodec, codec Codec, v any) ([]byte, Link, error) {
	b, err := c.Marshal(v)
	if err != nil {
		return nil, Link{}, err
	}
	return b, LinkFor(codec, b), nil
}
