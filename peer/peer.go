// Package peer implements the facade tying every other package
// together into a single running node: bucket lifecycle (mount/
// save_mount), the CLI/IPC contract, and the wire.Handler that answers
// other peers' requests.
package peer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/bucketlog"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/manifest"
	"github.com/meshvault/meshvault/mount"
	"github.com/meshvault/meshvault/syncjobs"
	"github.com/meshvault/meshvault/wire"
)

// Peer is one running node: its own identity, its local storage, the
// bucket-log index, and the sync-job dispatcher draining fire-and-forget
// ping/sync/pins jobs.
type Peer struct {
	Self   keys.SecretKey
	Logs   bucketlog.Log
	Blobs  blob.Store
	Dialer wire.Dialer
	Codec  ld.CBORCodec
	Jobs   *syncjobs.Dispatcher
	Logger *zap.SugaredLogger

	saveMu sync.Mutex // serializes save_mount across buckets
}

// New builds a Peer. logs and blobs back the local state; dialer
// reaches remote peers (nil is fine for a node that never syncs, e.g.
// tests exercising only local bucket operations).
func New(self keys.SecretKey, logs bucketlog.Log, blobs blob.Store, dialer wire.Dialer, jobs *syncjobs.Dispatcher, logger *zap.SugaredLogger) (*Peer, error) {
	codec, err := ld.NewCBORCodec()
	if err != nil {
		return nil, fmt.Errorf("peer: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Peer{Self: self, Logs: logs, Blobs: blobs, Dialer: dialer, Codec: codec, Jobs: jobs, Logger: logger}, nil
}

// ListBuckets returns every bucket id this peer tracks.
func (p *Peer) ListBuckets() []uuid.UUID {
	return p.Logs.ListBuckets()
}

// CreateBucket creates a brand-new genesis bucket owned solely by this
// peer's identity.
func (p *Peer) CreateBucket(name string) (uuid.UUID, error) {
	id := uuid.New()
	m, err := mount.Init(id, name, p.Self, p.Blobs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("peer: create bucket: %w", err)
	}
	if err := p.Logs.Append(id, name, m.Link, nil, 0, false); err != nil {
		return uuid.Nil, fmt.Errorf("peer: create bucket: recording genesis: %w", err)
	}
	return id, nil
}

// headLink returns the single current head of bucket, failing
// ErrConcurrentHeads if more than one exists at the max height.
func (p *Peer) headLink(bucket uuid.UUID) (ld.Link, uint64, error) {
	if !p.Logs.Exists(bucket) {
		return ld.Link{}, 0, ErrUnknownBucket
	}
	height, err := p.Logs.Height(bucket)
	if err != nil {
		return ld.Link{}, 0, fmt.Errorf("peer: reading height: %w", err)
	}
	heads, err := p.Logs.Heads(bucket, height)
	if err != nil {
		return ld.Link{}, 0, fmt.Errorf("peer: reading heads: %w", err)
	}
	if len(heads) != 1 {
		return ld.Link{}, 0, fmt.Errorf("%w: bucket %s at height %d", ErrConcurrentHeads, bucket, height)
	}
	return heads[0], height, nil
}

// Mount loads bucket's current head into a coherent Mount.
func (p *Peer) Mount(bucket uuid.UUID) (*mount.Mount, error) {
	link, _, err := p.headLink(bucket)
	if err != nil {
		return nil, err
	}
	m, err := mount.Load(link, p.Self, p.Blobs)
	if err != nil {
		return nil, fmt.Errorf("peer: mounting %s: %w", bucket, err)
	}
	return m, nil
}

// SaveMount saves m, records the new generation in the bucket log, and
// fire-and-forget pings every co-share peer except this one.
func (p *Peer) SaveMount(m *mount.Mount, publish bool) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	newLink, prevLink, height, err := m.Save(publish)
	if err != nil {
		return fmt.Errorf("peer: saving %s: %w", m.Manifest.ID, err)
	}
	if err := p.Logs.Append(m.Manifest.ID, m.Manifest.Name, newLink, &prevLink, height, m.Manifest.Published); err != nil {
		return fmt.Errorf("peer: recording %s: %w", m.Manifest.ID, err)
	}

	if p.Jobs != nil {
		self := p.Self.Public()
		for _, peer := range m.Manifest.SharePrincipals() {
			if peer == self {
				continue
			}
			p.Jobs.Dispatch(syncjobs.PingJob{BucketID: m.Manifest.ID, Link: newLink, Height: height, PeerID: peer})
		}
	}
	return nil
}

// ShareBucket grants role to peer over bucket and publishes the updated
// share set in a new manifest generation.
func (p *Peer) ShareBucket(bucket uuid.UUID, peer keys.PublicKey, role manifest.Role) error {
	m, err := p.Mount(bucket)
	if err != nil {
		return err
	}
	if err := m.ShareWith(peer, role); err != nil {
		return fmt.Errorf("peer: sharing %s with %s: %w", bucket, peer, err)
	}
	return p.SaveMount(m, m.Manifest.Published)
}

// PublishBucket saves a new generation of bucket with its published
// flag set. The flag is recorded in the manifest and the bucket log.
func (p *Peer) PublishBucket(bucket uuid.UUID) error {
	m, err := p.Mount(bucket)
	if err != nil {
		return err
	}
	return p.SaveMount(m, true)
}

// PingPeer advertises bucket's current head to peer and returns its
// reply.
func (p *Peer) PingPeer(ctx context.Context, bucket uuid.UUID, peer keys.PublicKey) (wire.PingReply, error) {
	link, height, err := p.headLink(bucket)
	if err != nil {
		return wire.PingReply{}, err
	}
	return wire.Ping(ctx, p.Dialer, p.Codec, p.Self, peer, wire.PingRequest{BucketID: bucket, Link: link, Height: height})
}

// PingResult pairs one co-share peer with its ping reply, or with the
// error its ping failed on.
type PingResult struct {
	Peer  keys.PublicKey
	Reply wire.PingReply
	Err   error
}

// PingAndCollect advertises bucket's current head to every co-share
// peer concurrently and collects their replies. A timeout of zero
// waits for every peer to answer or fail; a positive timeout bounds
// the whole collection, returning whatever replies have arrived when
// it expires.
func (p *Peer) PingAndCollect(ctx context.Context, bucket uuid.UUID, timeout time.Duration) ([]PingResult, error) {
	link, height, err := p.headLink(bucket)
	if err != nil {
		return nil, err
	}
	data, err := p.Blobs.Get(link.Hash)
	if err != nil {
		return nil, fmt.Errorf("peer: ping_and_collect: reading head manifest: %w", err)
	}
	m, err := manifest.Decode(p.Codec, data)
	if err != nil {
		return nil, fmt.Errorf("peer: ping_and_collect: decoding head manifest: %w", err)
	}

	self := p.Self.Public()
	var peers []keys.PublicKey
	for _, peer := range m.SharePrincipals() {
		if peer != self {
			peers = append(peers, peer)
		}
	}
	if len(peers) == 0 {
		return nil, nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := wire.PingRequest{BucketID: bucket, Link: link, Height: height}
	replies := make(chan PingResult, len(peers))
	for _, peer := range peers {
		go func(peer keys.PublicKey) {
			reply, err := wire.Ping(ctx, p.Dialer, p.Codec, p.Self, peer, req)
			replies <- PingResult{Peer: peer, Reply: reply, Err: err}
		}(peer)
	}

	out := make([]PingResult, 0, len(peers))
	for range peers {
		select {
		case r := <-replies:
			out = append(out, r)
		case <-ctx.Done():
			return out, nil
		}
	}
	return out, nil
}
