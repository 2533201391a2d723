package peer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/manifest"
	"github.com/meshvault/meshvault/mount"
)

// historyPageSize bounds how many heights get_history returns per page.
const historyPageSize = 20

// HistoryEntry is one generation of a bucket as seen by get_history.
type HistoryEntry struct {
	Height    uint64
	Link      ld.Link
	Published bool
}

// GetHistory returns bucket's generations at height
// [top-page*historyPageSize, top-(page+1)*historyPageSize), newest
// first, by decoding the manifest at each recorded head. page is
// 0-indexed.
func (p *Peer) GetHistory(bucket uuid.UUID, page int) ([]HistoryEntry, error) {
	if !p.Logs.Exists(bucket) {
		return nil, ErrUnknownBucket
	}
	top, err := p.Logs.Height(bucket)
	if err != nil {
		return nil, fmt.Errorf("peer: history: reading height: %w", err)
	}

	start := int64(top) - int64(page*historyPageSize)
	if start < 0 {
		return nil, nil
	}
	stop := start - historyPageSize + 1
	if stop < 0 {
		stop = 0
	}

	var out []HistoryEntry
	for h := start; h >= stop; h-- {
		heads, err := p.Logs.Heads(bucket, uint64(h))
		if err != nil {
			return nil, fmt.Errorf("peer: history: reading heads at %d: %w", h, err)
		}
		for _, link := range heads {
			data, err := p.Blobs.Get(link.Hash)
			if err != nil {
				// Manifest content not locally available yet (not yet
				// synced past the log entry); surface what we know.
				out = append(out, HistoryEntry{Height: uint64(h), Link: link})
				continue
			}
			m, err := manifest.Decode(p.Codec, data)
			if err != nil {
				return nil, fmt.Errorf("peer: history: decoding manifest at %d: %w", h, err)
			}
			out = append(out, HistoryEntry{Height: uint64(h), Link: link, Published: m.Published})
		}
	}
	return out, nil
}

// LsAtVersion lists path as of the bucket generation named by link.
func (p *Peer) LsAtVersion(link ld.Link, path string) ([]string, error) {
	m, err := mount.Load(link, p.Self, p.Blobs)
	if err != nil {
		return nil, fmt.Errorf("peer: ls_at_version: %w", err)
	}
	return m.Ls(path)
}

// CatAtVersion returns path's decrypted bytes as of the bucket
// generation named by link.
func (p *Peer) CatAtVersion(link ld.Link, path string) ([]byte, error) {
	m, err := mount.Load(link, p.Self, p.Blobs)
	if err != nil {
		return nil, fmt.Errorf("peer: cat_at_version: %w", err)
	}
	return m.Cat(path)
}

// Ls lists path in bucket's current head.
func (p *Peer) Ls(bucket uuid.UUID, path string) ([]string, error) {
	m, err := p.Mount(bucket)
	if err != nil {
		return nil, err
	}
	return m.Ls(path)
}

// Cat returns path's decrypted bytes in bucket's current head.
func (p *Peer) Cat(bucket uuid.UUID, path string) ([]byte, error) {
	m, err := p.Mount(bucket)
	if err != nil {
		return nil, err
	}
	return m.Cat(path)
}

// Add writes data at path in bucket and saves the result, preserving
// the bucket's current published state.
func (p *Peer) Add(bucket uuid.UUID, path string, data []byte) error {
	m, err := p.Mount(bucket)
	if err != nil {
		return err
	}
	if err := m.Add(path, data); err != nil {
		return fmt.Errorf("peer: add %s: %w", path, err)
	}
	return p.SaveMount(m, false)
}

// Mkdir creates an empty directory at path in bucket.
func (p *Peer) Mkdir(bucket uuid.UUID, path string) error {
	m, err := p.Mount(bucket)
	if err != nil {
		return err
	}
	if err := m.Mkdir(path); err != nil {
		return fmt.Errorf("peer: mkdir %s: %w", path, err)
	}
	return p.SaveMount(m, false)
}

// Rm removes the entry at path in bucket.
func (p *Peer) Rm(bucket uuid.UUID, path string) error {
	m, err := p.Mount(bucket)
	if err != nil {
		return err
	}
	if err := m.Rm(path); err != nil {
		return fmt.Errorf("peer: rm %s: %w", path, err)
	}
	return p.SaveMount(m, false)
}

// Mv moves from to to in bucket.
func (p *Peer) Mv(bucket uuid.UUID, from, to string) error {
	m, err := p.Mount(bucket)
	if err != nil {
		return err
	}
	if err := m.Mv(from, to); err != nil {
		return fmt.Errorf("peer: mv %s -> %s: %w", from, to, err)
	}
	return p.SaveMount(m, false)
}
