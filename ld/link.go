package ld

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Codec tags the on-wire encoding of the content a Link refers to.
type Codec uint64

const (
	// CodecRaw tags an opaque byte blob: encrypted node trees, encrypted
	// data payloads, and hash-list blobs are all stored raw.
	CodecRaw Codec = 0x55
	// CodecCBOR tags a blob whose plaintext is a CBOR-encoded value, such
	// as a Manifest.
	CodecCBOR Codec = 0x71
)

// Link points at a stored blob by content hash, tagged with the codec of
// the referent so a reader knows how to interpret the bytes once fetched.
type Link struct {
	Codec Codec `cbor:"codec"`
	Hash  Hash  `cbor:"hash"`
}

// NewRawLink builds a Link to a raw (opaque) blob.
func NewRawLink(h Hash) Link {
	return Link{Codec: CodecRaw, Hash: h}
}

// NewCBORLink builds a Link to a blob whose plaintext is CBOR-encoded.
func NewCBORLink(h Hash) Link {
	return Link{Codec: CodecCBOR, Hash: h}
}

// Equal reports whether two links refer to the same codec and hash.
func (l Link) Equal(o Link) bool {
	return l.Codec == o.Codec && l.Hash == o.Hash
}

// IsZero reports whether l is the zero Link (no codec, zero hash).
func (l Link) IsZero() bool {
	return l.Codec == 0 && l.Hash.IsZero()
}

// String renders l as "<codec-hex>:<hash-hex>", the form accepted by
// ParseLink and used to pass links on the command line — e.g. as the
// opaque version identifier ls_at_version/cat_at_version take.
func (l Link) String() string {
	return fmt.Sprintf("%02x:%s", uint64(l.Codec), l.Hash)
}

// ParseLink is the inverse of Link.String.
func ParseLink(s string) (Link, error) {
	codecHex, hashHex, ok := strings.Cut(s, ":")
	if !ok {
		return Link{}, fmt.Errorf("ld: malformed link %q: want <codec>:<hash>", s)
	}
	codecBytes, err := hex.DecodeString(codecHex)
	if err != nil {
		return Link{}, fmt.Errorf("ld: parsing link codec: %w", err)
	}
	var codec Codec
	for _, b := range codecBytes {
		codec = codec<<8 | Codec(b)
	}
	hashBytes, err := hex.DecodeString(hashHex)
	if err != nil {
		return Link{}, fmt.Errorf("ld: parsing link hash: %w", err)
	}
	h, err := HashFromBytes(hashBytes)
	if err != nil {
		return Link{}, err
	}
	return Link{Codec: codec, Hash: h}, nil
}
