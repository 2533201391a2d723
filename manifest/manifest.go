// Package manifest implements the bucket's public header: an
// unencrypted, CBOR-encoded record naming the bucket, its current
// height, the links to its encrypted entry tree/pins/ops log, and the
// set of peers authorized to read it.
package manifest

import (
	"github.com/google/uuid"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/secretshare"
)

// Version tags the manifest's wire format.
type Version int

const (
	// Version1 is the only version this implementation produces or
	// understands.
	Version1 Version = 1
)

// Role distinguishes an Owner (full read/write principal) from a Mirror
// (read-only replica holder).
type Role string

const (
	RoleOwner  Role = "Owner"
	RoleMirror Role = "Mirror"
)

// Principal names a peer and the role it holds over the bucket.
type Principal struct {
	Identity keys.PublicKey `cbor:"identity"`
	Role     Role           `cbor:"role"`
}

// Share wraps the bucket Secret for one Principal.
type Share struct {
	Principal Principal               `cbor:"principal"`
	Share     secretshare.SecretShare `cbor:"share"`
}

// Manifest is the bucket's public header, CBOR-encoded and stored
// unencrypted.
type Manifest struct {
	ID        uuid.UUID        `cbor:"id"`
	Name      string           `cbor:"name"`
	Version   Version          `cbor:"version"`
	Height    uint64           `cbor:"height"`
	Previous  *ld.Link         `cbor:"previous"`
	Entry     ld.Link          `cbor:"entry"`
	Pins      ld.Link          `cbor:"pins"`
	OpsLog    *ld.Link         `cbor:"ops_log"`
	Shares    map[string]Share `cbor:"shares"`
	Published bool             `cbor:"published"`
}

// ShareFor returns the Share for the given public key, if present.
func (m *Manifest) ShareFor(pk keys.PublicKey) (Share, bool) {
	sh, ok := m.Shares[pk.String()]
	return sh, ok
}

// SetShare installs or replaces the share for a principal.
func (m *Manifest) SetShare(sh Share) {
	if m.Shares == nil {
		m.Shares = make(map[string]Share)
	}
	m.Shares[sh.Principal.Identity.String()] = sh
}

// SharePrincipals returns the public keys of every principal currently
// sharing the bucket.
func (m *Manifest) SharePrincipals() []keys.PublicKey {
	out := make([]keys.PublicKey, 0, len(m.Shares))
	for _, sh := range m.Shares {
		out = append(out, sh.Principal.Identity)
	}
	return out
}

// IsGenesis reports whether m is a chain root (height 0, no previous).
func (m *Manifest) IsGenesis() bool {
	return m.Height == 0 && m.Previous == nil
}

// Encode CBOR-encodes m using codec.
func (m *Manifest) Encode(codec ld.CBORCodec) ([]byte, ld.Link, error) {
	return ld.EncodeTyped(codec, ld.CodecCBOR, m)
}

// Decode parses manifest bytes using codec.
func Decode(codec ld.CBORCodec, data []byte) (*Manifest, error) {
	var m Manifest
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
