package syncjobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/bucketlog"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/mount"
)

// newTestDeps builds Deps around a blob store that already holds every
// manifest a remote peer would otherwise need to serve over the wire —
// enough to exercise the chain-walking and log-application logic
// without a real transport. The returned Deps' Self is the bucket
// owner's key.
func newTestDeps(t *testing.T) (Deps, keys.PublicKey, keys.SecretKey) {
	t.Helper()
	pub, sk, err := keys.Generate()
	require.NoError(t, err)
	codec, err := ld.NewCBORCodec()
	require.NoError(t, err)
	return Deps{
		Logs:  bucketlog.NewMemLog(),
		Blobs: blob.NewMemStore(),
		Codec: codec,
		Self:  sk,
	}, pub, sk
}

func TestSyncBucketAppliesFreshChain(t *testing.T) {
	deps, pub, sk := newTestDeps(t)
	id := uuid.New()

	m, err := mount.Init(id, "photos", sk, deps.Blobs)
	require.NoError(t, err)
	require.NoError(t, m.Add("/hello.txt", []byte("hi")))
	newLink, _, height, err := m.Save(false)
	require.NoError(t, err)

	d := NewDispatcher(deps, 1, 4)
	job := SyncBucketJob{BucketID: id, Target: SyncTarget{Link: newLink, Height: height, PeerIDs: []keys.PublicKey{pub}}}
	require.NoError(t, doSyncBucket(context.Background(), d, job))

	require.True(t, deps.Logs.Exists(id))
	h, err := deps.Logs.Height(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), h)
	heads, err := deps.Logs.Heads(id, 1)
	require.NoError(t, err)
	require.Equal(t, []ld.Link{newLink}, heads)
}

func TestSyncBucketNoOpWhenUpToDate(t *testing.T) {
	deps, pub, sk := newTestDeps(t)
	id := uuid.New()

	m, err := mount.Init(id, "photos", sk, deps.Blobs)
	require.NoError(t, err)
	require.NoError(t, deps.Logs.Append(id, "photos", m.Link, nil, 0, false))

	d := NewDispatcher(deps, 1, 4)
	job := SyncBucketJob{BucketID: id, Target: SyncTarget{Link: m.Link, Height: 0, PeerIDs: []keys.PublicKey{pub}}}
	require.NoError(t, doSyncBucket(context.Background(), d, job))

	h, err := deps.Logs.Height(id)
	require.NoError(t, err)
	require.Equal(t, uint64(0), h)
}

func TestSyncBucketProvenanceRejected(t *testing.T) {
	deps, pub, sk := newTestDeps(t)
	id := uuid.New()

	m, err := mount.Init(id, "photos", sk, deps.Blobs)
	require.NoError(t, err)

	// deps.Self is swapped for an identity carrying no share in the
	// genesis manifest.
	_, otherSK, err := keys.Generate()
	require.NoError(t, err)
	deps.Self = otherSK

	d := NewDispatcher(deps, 1, 4)
	job := SyncBucketJob{BucketID: id, Target: SyncTarget{Link: m.Link, Height: 0, PeerIDs: []keys.PublicKey{pub}}}
	err = doSyncBucket(context.Background(), d, job)
	require.ErrorIs(t, err, ErrProvenanceRejected)
	require.False(t, deps.Logs.Exists(id))
}

func TestSyncBucketChainDiverged(t *testing.T) {
	deps, pub, sk := newTestDeps(t)
	id := uuid.New()

	// The local log already tracks this bucket, but at a manifest link
	// that shares no ancestry with the advertised chain.
	unrelated := ld.NewCBORLink(ld.SumHash([]byte("unrelated genesis")))
	require.NoError(t, deps.Logs.Append(id, "photos", unrelated, nil, 0, false))

	m, err := mount.Init(id, "photos", sk, deps.Blobs)
	require.NoError(t, err)

	d := NewDispatcher(deps, 1, 4)
	job := SyncBucketJob{BucketID: id, Target: SyncTarget{Link: m.Link, Height: 0, PeerIDs: []keys.PublicKey{pub}}}
	err = doSyncBucket(context.Background(), d, job)
	require.ErrorIs(t, err, ErrChainDiverged)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	d := NewDispatcher(deps, 0, 1)
	id := uuid.New()
	require.True(t, d.Dispatch(PingJob{BucketID: id}))
	require.False(t, d.Dispatch(PingJob{BucketID: id}))
}
