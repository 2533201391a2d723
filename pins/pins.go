// Package pins implements the set of hashes a bucket keeps alive: the
// entry-link hash, the previous-manifest hash, the ops-log-link hash,
// and every blob reachable from the entry tree that the peer pins.
// Serialized as the concatenation of raw 32-byte hashes.
package pins

import (
	"errors"
	"fmt"

	"github.com/meshvault/meshvault/ld"
)

// ErrInvalidHashList is returned when a hash-list blob's length is not a
// multiple of ld.HashSize.
var ErrInvalidHashList = errors.New("pins: hash-list blob length is not a multiple of 32")

// Pins is an ordered-insertion set of hashes: insertion order is
// preserved (for deterministic serialization) while duplicates are
// rejected.
type Pins struct {
	order []ld.Hash
	set   map[ld.Hash]struct{}
}

// New returns an empty Pins set.
func New() *Pins {
	return &Pins{set: make(map[ld.Hash]struct{})}
}

// Add inserts h if not already present; returns whether it was added.
func (p *Pins) Add(h ld.Hash) bool {
	if p.set == nil {
		p.set = make(map[ld.Hash]struct{})
	}
	if _, ok := p.set[h]; ok {
		return false
	}
	p.set[h] = struct{}{}
	p.order = append(p.order, h)
	return true
}

// AddLink is a convenience wrapper for Add(link.Hash).
func (p *Pins) AddLink(l ld.Link) bool {
	return p.Add(l.Hash)
}

// Contains reports whether h is pinned.
func (p *Pins) Contains(h ld.Hash) bool {
	_, ok := p.set[h]
	return ok
}

// Hashes returns the pinned hashes in insertion order. The returned
// slice must not be mutated by callers.
func (p *Pins) Hashes() []ld.Hash {
	return p.order
}

// Len returns the number of pinned hashes.
func (p *Pins) Len() int { return len(p.order) }

// Clone returns an independent copy of p.
func (p *Pins) Clone() *Pins {
	out := New()
	out.order = append([]ld.Hash(nil), p.order...)
	out.set = make(map[ld.Hash]struct{}, len(p.set))
	for h := range p.set {
		out.set[h] = struct{}{}
	}
	return out
}

// Encode serializes the pins as the concatenation of raw 32-byte
// hashes, the "hash-list blob" format.
func (p *Pins) Encode() []byte {
	out := make([]byte, 0, len(p.order)*ld.HashSize)
	for _, h := range p.order {
		out = append(out, h[:]...)
	}
	return out
}

// Decode parses a hash-list blob into a Pins set, preserving the order
// the hashes appear in the blob.
func Decode(data []byte) (*Pins, error) {
	if len(data)%ld.HashSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidHashList, len(data))
	}
	p := New()
	for i := 0; i+ld.HashSize <= len(data); i += ld.HashSize {
		h, err := ld.HashFromBytes(data[i : i+ld.HashSize])
		if err != nil {
			return nil, err
		}
		p.Add(h)
	}
	return p, nil
}
