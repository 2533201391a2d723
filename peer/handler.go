package peer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/syncjobs"
	"github.com/meshvault/meshvault/wire"
)

// HandlePing implements wire.Handler: determine our position relative
// to the advertiser's head and, if we are behind, dispatch a SyncBucket
// job targeting the advertiser.
func (p *Peer) HandlePing(ctx context.Context, from keys.PublicKey, req wire.PingRequest) (wire.PingReply, error) {
	if !p.Logs.Exists(req.BucketID) {
		return wire.PingReply{Status: wire.PingStatusNotFound}, nil
	}

	ourHeight, err := p.Logs.Height(req.BucketID)
	if err != nil {
		return wire.PingReply{}, err
	}

	atHeights, err := p.Logs.Has(req.BucketID, req.Link)
	if err != nil {
		return wire.PingReply{}, err
	}

	if len(atHeights) > 0 && atHeights[0] == ourHeight {
		return wire.PingReply{Status: wire.PingStatusInSync}, nil
	}

	ourLink, err := p.ourHead(req.BucketID, ourHeight)
	if err != nil {
		return wire.PingReply{}, err
	}

	if len(atHeights) == 0 && ourHeight < req.Height {
		reply := wire.PingReply{Status: wire.PingStatusBehind, Link: &ourLink, Height: ourHeight}
		if p.Jobs != nil {
			p.Jobs.Dispatch(syncjobs.SyncBucketJob{
				BucketID: req.BucketID,
				Target:   syncjobs.SyncTarget{Link: req.Link, Height: req.Height, PeerIDs: []keys.PublicKey{from}},
			})
		}
		return reply, nil
	}

	// Either the advertised link is already one of our ancestors at a
	// lower height, or it is absent and we are not behind on height —
	// a fork at equal or lesser height. Both are reported as Ahead: the
	// advertiser is the one missing information, ours included.
	return wire.PingReply{Status: wire.PingStatusAhead, Link: &ourLink, Height: ourHeight}, nil
}

// ourHead returns one of the (possibly several, under a concurrent
// fork) heads recorded at height — arbitrary but deterministic-enough
// for a ping reply, which only advertises a candidate to sync against.
func (p *Peer) ourHead(bucket uuid.UUID, height uint64) (ld.Link, error) {
	heads, err := p.Logs.Heads(bucket, height)
	if err != nil {
		return ld.Link{}, err
	}
	if len(heads) == 0 {
		return ld.Link{}, fmt.Errorf("peer: no heads recorded for %s at height %d", bucket, height)
	}
	return heads[0], nil
}

// HandleFetchBlob implements wire.Handler: serve a locally-held blob by
// hash, or report it absent.
func (p *Peer) HandleFetchBlob(ctx context.Context, from keys.PublicKey, req wire.FetchBlobRequest) (wire.FetchBlobReply, error) {
	if !p.Blobs.Stat(req.Hash) {
		return wire.FetchBlobReply{Found: false}, nil
	}
	data, err := p.Blobs.Get(req.Hash)
	if err != nil {
		return wire.FetchBlobReply{}, err
	}
	return wire.FetchBlobReply{Found: true, Data: data}, nil
}
