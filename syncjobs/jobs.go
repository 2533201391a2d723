// Package syncjobs implements the sync job queue and worker loop: ping
// advertisement, per-bucket chain synchronization against a remote
// head, and pins download, dispatched fire-and-forget by the peer
// facade.
package syncjobs

import (
	"github.com/google/uuid"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

// Job is one unit of work the Dispatcher's worker pool executes.
type Job interface {
	bucket() uuid.UUID
}

// PingJob advertises a bucket's current head to one co-share peer,
// fired as a side effect of saving a mount.
type PingJob struct {
	BucketID uuid.UUID
	Link     ld.Link
	Height   uint64
	PeerID   keys.PublicKey
}

func (j PingJob) bucket() uuid.UUID { return j.BucketID }

// SyncTarget names the remote head a SyncBucketJob reconciles against
// and the peers it may fetch manifests/blobs from, in priority order.
type SyncTarget struct {
	Link    ld.Link
	Height  uint64
	PeerIDs []keys.PublicKey
}

// SyncBucketJob walks the manifest chain back from Target to a common
// ancestor (or genesis) and applies every newly discovered manifest to
// the local bucket log.
type SyncBucketJob struct {
	BucketID uuid.UUID
	Target   SyncTarget
}

func (j SyncBucketJob) bucket() uuid.UUID { return j.BucketID }

// DownloadPinsJob downloads a bucket generation's full pins hash-list
// and every blob it names.
type DownloadPinsJob struct {
	BucketID uuid.UUID
	PinsLink ld.Link
	PeerIDs  []keys.PublicKey
}

func (j DownloadPinsJob) bucket() uuid.UUID { return j.BucketID }
