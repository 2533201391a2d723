package peer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/bucketlog"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/manifest"
	"github.com/meshvault/meshvault/peer"
	"github.com/meshvault/meshvault/syncjobs"
	"github.com/meshvault/meshvault/wire"
)

func newTestPeer(t *testing.T) (*peer.Peer, keys.SecretKey) {
	t.Helper()
	_, sk, err := keys.Generate()
	require.NoError(t, err)
	logs := bucketlog.NewMemLog()
	blobs := blob.NewMemStore()
	deps := syncjobs.Deps{Logs: logs, Blobs: blobs, Self: sk}
	dispatcher := syncjobs.NewDispatcher(deps, 1, 8)
	p, err := peer.New(sk, logs, blobs, nil, dispatcher, nil)
	require.NoError(t, err)
	return p, sk
}

func TestCreateBucketAndFileRoundTrip(t *testing.T) {
	p, _ := newTestPeer(t)

	id, err := p.CreateBucket("photos")
	require.NoError(t, err)
	require.Contains(t, p.ListBuckets(), id)

	require.NoError(t, p.Mkdir(id, "/2024"))
	require.NoError(t, p.Add(id, "/2024/beach.jpg", []byte("binary-ish")))

	names, err := p.Ls(id, "/2024")
	require.NoError(t, err)
	require.Equal(t, []string{"beach.jpg"}, names)

	data, err := p.Cat(id, "/2024/beach.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("binary-ish"), data)

	require.NoError(t, p.Mv(id, "/2024/beach.jpg", "/2024/beach-day.jpg"))
	_, err = p.Cat(id, "/2024/beach.jpg")
	require.Error(t, err)
	data, err = p.Cat(id, "/2024/beach-day.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("binary-ish"), data)

	require.NoError(t, p.Rm(id, "/2024/beach-day.jpg"))
	names, err = p.Ls(id, "/2024")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestShareAndPublishBucket(t *testing.T) {
	p, _ := newTestPeer(t)
	id, err := p.CreateBucket("shared")
	require.NoError(t, err)

	friendPub, _, err := keys.Generate()
	require.NoError(t, err)
	require.NoError(t, p.ShareBucket(id, friendPub, manifest.RoleMirror))

	m, err := p.Mount(id)
	require.NoError(t, err)
	sh, ok := m.Manifest.ShareFor(friendPub)
	require.True(t, ok)
	require.Equal(t, manifest.RoleMirror, sh.Principal.Role)
	require.False(t, m.Manifest.Published)

	require.NoError(t, p.PublishBucket(id))
	m, err = p.Mount(id)
	require.NoError(t, err)
	require.True(t, m.Manifest.Published)
}

func TestGetHistoryNewestFirst(t *testing.T) {
	p, _ := newTestPeer(t)
	id, err := p.CreateBucket("versioned")
	require.NoError(t, err)
	require.NoError(t, p.Add(id, "/a.txt", []byte("1")))
	require.NoError(t, p.Add(id, "/b.txt", []byte("2")))

	entries, err := p.GetHistory(id, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3) // genesis + two saves
	require.Equal(t, uint64(2), entries[0].Height)
	require.Equal(t, uint64(1), entries[1].Height)
	require.Equal(t, uint64(0), entries[2].Height)
}

func TestHandlePingStatuses(t *testing.T) {
	p, _ := newTestPeer(t)
	ctx := context.Background()
	advertiserPub, _, err := keys.Generate()
	require.NoError(t, err)

	id, err := p.CreateBucket("mirrored")
	require.NoError(t, err)
	genesis, err := p.Mount(id)
	require.NoError(t, err)
	genesisLink := genesis.Link

	reply, err := p.HandlePing(ctx, advertiserPub, wire.PingRequest{BucketID: uuid.New(), Link: genesisLink, Height: 0})
	require.NoError(t, err)
	require.Equal(t, wire.PingStatusNotFound, reply.Status)

	reply, err = p.HandlePing(ctx, advertiserPub, wire.PingRequest{BucketID: id, Link: genesisLink, Height: 0})
	require.NoError(t, err)
	require.Equal(t, wire.PingStatusInSync, reply.Status)

	unrelated := ld.NewCBORLink(ld.SumHash([]byte("unrelated")))
	reply, err = p.HandlePing(ctx, advertiserPub, wire.PingRequest{BucketID: id, Link: unrelated, Height: 5})
	require.NoError(t, err)
	require.Equal(t, wire.PingStatusBehind, reply.Status)
	require.NotNil(t, reply.Link)
	require.Equal(t, genesisLink, *reply.Link)

	require.NoError(t, p.Add(id, "/a.txt", []byte("1")))
	reply, err = p.HandlePing(ctx, advertiserPub, wire.PingRequest{BucketID: id, Link: unrelated, Height: 0})
	require.NoError(t, err)
	require.Equal(t, wire.PingStatusAhead, reply.Status)
	require.Equal(t, uint64(1), reply.Height)
}

// errDialer fails every Open, standing in for a fleet of unreachable
// peers.
type errDialer struct{}

func (errDialer) Open(context.Context, keys.PublicKey) (wire.Stream, error) {
	return nil, errors.New("peer unreachable")
}

func TestPingAndCollectReportsPerPeerErrors(t *testing.T) {
	_, sk, err := keys.Generate()
	require.NoError(t, err)
	logs := bucketlog.NewMemLog()
	blobs := blob.NewMemStore()
	dispatcher := syncjobs.NewDispatcher(syncjobs.Deps{Logs: logs, Blobs: blobs, Self: sk}, 1, 8)
	p, err := peer.New(sk, logs, blobs, errDialer{}, dispatcher, nil)
	require.NoError(t, err)

	id, err := p.CreateBucket("collected")
	require.NoError(t, err)

	// No co-share peers yet: nothing to collect.
	results, err := p.PingAndCollect(context.Background(), id, 0)
	require.NoError(t, err)
	require.Empty(t, results)

	friendPub, _, err := keys.Generate()
	require.NoError(t, err)
	require.NoError(t, p.ShareBucket(id, friendPub, manifest.RoleMirror))

	results, err = p.PingAndCollect(context.Background(), id, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, friendPub, results[0].Peer)
	require.Error(t, results[0].Err)
}

func TestHandleFetchBlob(t *testing.T) {
	p, _ := newTestPeer(t)
	ctx := context.Background()
	requester, _, err := keys.Generate()
	require.NoError(t, err)

	h, err := p.Blobs.Put([]byte("hello"))
	require.NoError(t, err)

	reply, err := p.HandleFetchBlob(ctx, requester, wire.FetchBlobRequest{Hash: h})
	require.NoError(t, err)
	require.True(t, reply.Found)
	require.Equal(t, []byte("hello"), reply.Data)

	missing := ld.SumHash([]byte("nope"))
	reply, err = p.HandleFetchBlob(ctx, requester, wire.FetchBlobRequest{Hash: missing})
	require.NoError(t, err)
	require.False(t, reply.Found)
}
