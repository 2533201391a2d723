// Package mount implements the coherent, in-memory bucket handle: load
// a bucket from its manifest link, mutate its entry tree and
// path-operation log, and save a new manifest generation.
package mount

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/manifest"
	"github.com/meshvault/meshvault/node"
	"github.com/meshvault/meshvault/pathops"
	"github.com/meshvault/meshvault/pins"
	"github.com/meshvault/meshvault/secret"
	"github.com/meshvault/meshvault/secretshare"
)

// Mount is the coherent in-memory view of one bucket generation: its
// manifest, its decrypted entry tree, its pins, its path-operation
// log, and the bucket Secret currently protecting the entry tree and
// ops log.
type Mount struct {
	Link     ld.Link
	Manifest *manifest.Manifest
	Entry    *node.Node
	Pins     *pins.Pins
	Height   uint64
	OpsLog   *pathops.PathOpLog
	PeerID   keys.PublicKey

	secret secret.Secret
	blobs  blob.Store
	codec  ld.CBORCodec
}

// Init creates a brand-new genesis bucket, owned solely by ownerSK, and
// stores its initial blobs (empty entry node, pins, manifest) in blobs.
func Init(id uuid.UUID, name string, ownerSK keys.SecretKey, blobs blob.Store) (*Mount, error) {
	codec, err := ld.NewCBORCodec()
	if err != nil {
		return nil, fmt.Errorf("mount: init: %w", err)
	}
	ownerPub := ownerSK.Public()

	s, err := secret.Generate()
	if err != nil {
		return nil, fmt.Errorf("mount: init: generating bucket secret: %w", err)
	}

	entry := node.New()
	entryLink, err := storeEncryptedNode(blobs, codec, entry, s)
	if err != nil {
		return nil, fmt.Errorf("mount: init: storing entry: %w", err)
	}

	share, err := secretshare.New(s, ownerPub)
	if err != nil {
		return nil, fmt.Errorf("mount: init: wrapping owner share: %w", err)
	}

	p := pins.New()
	p.AddLink(entryLink)
	pinsLink, err := storePins(blobs, p)
	if err != nil {
		return nil, fmt.Errorf("mount: init: storing pins: %w", err)
	}

	m := &manifest.Manifest{
		ID:      id,
		Name:    name,
		Version: manifest.Version1,
		Height:  0,
		Entry:   entryLink,
		Pins:    pinsLink,
	}
	m.SetShare(manifest.Share{
		Principal: manifest.Principal{Identity: ownerPub, Role: manifest.RoleOwner},
		Share:     share,
	})

	link, err := storeManifest(blobs, codec, m)
	if err != nil {
		return nil, fmt.Errorf("mount: init: storing manifest: %w", err)
	}

	return &Mount{
		Link:     link,
		Manifest: m,
		Entry:    entry,
		Pins:     p,
		Height:   0,
		OpsLog:   pathops.New(ownerPub),
		PeerID:   ownerPub,
		secret:   s,
		blobs:    blobs,
		codec:    codec,
	}, nil
}

// Load fetches and decodes the manifest at link, recovers the bucket
// Secret from mySK's share, and loads the entry tree, pins, and (if
// present) ops log.
func Load(link ld.Link, mySK keys.SecretKey, blobs blob.Store) (*Mount, error) {
	codec, err := ld.NewCBORCodec()
	if err != nil {
		return nil, fmt.Errorf("mount: load: %w", err)
	}
	myPub := mySK.Public()

	manifestBytes, err := blobs.Get(link.Hash)
	if err != nil {
		return nil, fmt.Errorf("mount: load: fetching manifest: %w", err)
	}
	m, err := manifest.Decode(codec, manifestBytes)
	if err != nil {
		return nil, fmt.Errorf("mount: load: decoding manifest: %w", err)
	}

	share, ok := m.ShareFor(myPub)
	if !ok {
		return nil, ErrShareNotFound
	}
	s, err := share.Share.Recover(mySK)
	if err != nil {
		return nil, fmt.Errorf("mount: load: recovering bucket secret: %w", err)
	}

	pinsBytes, err := blobs.Get(m.Pins.Hash)
	if err != nil {
		return nil, fmt.Errorf("mount: load: fetching pins: %w", err)
	}
	p, err := pins.Decode(pinsBytes)
	if err != nil {
		return nil, fmt.Errorf("mount: load: decoding pins: %w", err)
	}

	entry, err := loadEncryptedNode(blobs, codec, m.Entry, s)
	if err != nil {
		return nil, fmt.Errorf("mount: load: decoding entry: %w", err)
	}

	opsLog := pathops.New(myPub)
	if m.OpsLog != nil {
		opsBytes, err := blobs.Get(m.OpsLog.Hash)
		if err != nil {
			return nil, fmt.Errorf("mount: load: fetching ops log: %w", err)
		}
		plain, err := s.Decrypt(opsBytes)
		if err != nil {
			return nil, fmt.Errorf("mount: load: decrypting ops log: %w", err)
		}
		opsLog, err = pathops.Decode(codec, myPub, plain)
		if err != nil {
			return nil, fmt.Errorf("mount: load: decoding ops log: %w", err)
		}
	}

	return &Mount{
		Link:     link,
		Manifest: m,
		Entry:    entry,
		Pins:     p,
		Height:   m.Height,
		OpsLog:   opsLog,
		PeerID:   myPub,
		secret:   s,
		blobs:    blobs,
		codec:    codec,
	}, nil
}

// Save re-encrypts the entry tree (and ops log, if non-empty) under a
// fresh Secret, rewraps that Secret for every existing share, and
// writes a new manifest generation. It does not append to a bucket log
// or dispatch pings — that is the peer facade's job.
func (m *Mount) Save(publish bool) (newLink ld.Link, previousLink ld.Link, newHeight uint64, err error) {
	previousLink = m.Link
	newHeight = m.Height + 1

	freshSecret, err := secret.Generate()
	if err != nil {
		return ld.Link{}, ld.Link{}, 0, fmt.Errorf("mount: save: generating secret: %w", err)
	}

	entryLink, err := storeEncryptedNode(m.blobs, m.codec, m.Entry, freshSecret)
	if err != nil {
		return ld.Link{}, ld.Link{}, 0, fmt.Errorf("mount: save: storing entry: %w", err)
	}

	var opsLink *ld.Link
	if !m.OpsLog.IsEmpty() {
		l, err := storeEncryptedOpsLog(m.blobs, m.codec, m.OpsLog, freshSecret)
		if err != nil {
			return ld.Link{}, ld.Link{}, 0, fmt.Errorf("mount: save: storing ops log: %w", err)
		}
		opsLink = &l
		m.Pins.AddLink(l)
	}

	m.Pins.AddLink(entryLink)
	m.Pins.AddLink(previousLink)
	pinsLink, err := storePins(m.blobs, m.Pins)
	if err != nil {
		return ld.Link{}, ld.Link{}, 0, fmt.Errorf("mount: save: storing pins: %w", err)
	}

	newShares := make(map[string]manifest.Share, len(m.Manifest.Shares))
	for key, sh := range m.Manifest.Shares {
		wrapped, err := secretshare.New(freshSecret, sh.Principal.Identity)
		if err != nil {
			return ld.Link{}, ld.Link{}, 0, fmt.Errorf("mount: save: rewrapping share for %s: %w", sh.Principal.Identity, err)
		}
		newShares[key] = manifest.Share{Principal: sh.Principal, Share: wrapped}
	}

	published := m.Manifest.Published || publish

	newManifest := &manifest.Manifest{
		ID:        m.Manifest.ID,
		Name:      m.Manifest.Name,
		Version:   m.Manifest.Version,
		Height:    newHeight,
		Previous:  &previousLink,
		Entry:     entryLink,
		Pins:      pinsLink,
		OpsLog:    opsLink,
		Shares:    newShares,
		Published: published,
	}

	link, err := storeManifest(m.blobs, m.codec, newManifest)
	if err != nil {
		return ld.Link{}, ld.Link{}, 0, fmt.Errorf("mount: save: storing manifest: %w", err)
	}

	m.Link = link
	m.Manifest = newManifest
	m.Height = newHeight
	m.secret = freshSecret

	return link, previousLink, newHeight, nil
}

// ShareWith grants role to peer by wrapping the bucket's current Secret
// for its public key. The caller must Save afterward to publish the
// updated share set in a new manifest generation.
func (m *Mount) ShareWith(peer keys.PublicKey, role manifest.Role) error {
	share, err := secretshare.New(m.secret, peer)
	if err != nil {
		return fmt.Errorf("mount: share: wrapping secret for %s: %w", peer, err)
	}
	m.Manifest.SetShare(manifest.Share{
		Principal: manifest.Principal{Identity: peer, Role: role},
		Share:     share,
	})
	return nil
}

// storeEncryptedNode encodes n as CBOR, encrypts it under s, stores the
// ciphertext, and returns the resulting content link.
func storeEncryptedNode(blobs blob.Store, codec ld.CBORCodec, n *node.Node, s secret.Secret) (ld.Link, error) {
	plain, err := n.Encode(codec)
	if err != nil {
		return ld.Link{}, err
	}
	cipher, err := s.Encrypt(plain)
	if err != nil {
		return ld.Link{}, err
	}
	h, err := blobs.Put(cipher)
	if err != nil {
		return ld.Link{}, err
	}
	return ld.NewRawLink(h), nil
}

// loadEncryptedNode fetches, decrypts, and decodes a Node.
func loadEncryptedNode(blobs blob.Store, codec ld.CBORCodec, link ld.Link, s secret.Secret) (*node.Node, error) {
	cipher, err := blobs.Get(link.Hash)
	if err != nil {
		return nil, err
	}
	plain, err := s.Decrypt(cipher)
	if err != nil {
		return nil, err
	}
	return node.Decode(codec, plain)
}

// storeEncryptedOpsLog encodes, encrypts, and stores the ops log.
func storeEncryptedOpsLog(blobs blob.Store, codec ld.CBORCodec, log *pathops.PathOpLog, s secret.Secret) (ld.Link, error) {
	plain, err := log.Encode(codec)
	if err != nil {
		return ld.Link{}, err
	}
	cipher, err := s.Encrypt(plain)
	if err != nil {
		return ld.Link{}, err
	}
	h, err := blobs.Put(cipher)
	if err != nil {
		return ld.Link{}, err
	}
	return ld.NewRawLink(h), nil
}

// storePins serializes and stores a Pins set as a hash-list blob.
func storePins(blobs blob.Store, p *pins.Pins) (ld.Link, error) {
	h, err := blobs.Put(p.Encode())
	if err != nil {
		return ld.Link{}, err
	}
	return ld.NewRawLink(h), nil
}

// storeManifest encodes and stores a manifest, unencrypted.
func storeManifest(blobs blob.Store, codec ld.CBORCodec, m *manifest.Manifest) (ld.Link, error) {
	data, link, err := m.Encode(codec)
	if err != nil {
		return ld.Link{}, err
	}
	if _, err := blobs.Put(data); err != nil {
		return ld.Link{}, err
	}
	return link, nil
}
