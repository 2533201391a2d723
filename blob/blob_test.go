package blob_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

func TestMemStorePutGetStat(t *testing.T) {
	s := blob.NewMemStore()
	h, err := s.Put([]byte("hello"))
	require.NoError(t, err)
	require.True(t, s.Stat(h))

	got, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	_, err = s.Get(ld.SumHash([]byte("missing")))
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestMemStoreHashList(t *testing.T) {
	s := blob.NewMemStore()
	h1, _ := s.Put([]byte("a"))
	h2, _ := s.Put([]byte("b"))

	listHash, err := s.CreateHashList([]ld.Hash{h1, h2})
	require.NoError(t, err)

	got, err := s.ReadHashList(listHash)
	require.NoError(t, err)
	require.Equal(t, []ld.Hash{h1, h2}, got)
}

func TestLocalStorePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := blob.NewLocalStore(dir, nil)
	require.NoError(t, err)

	h, err := s.Put([]byte("payload"))
	require.NoError(t, err)
	require.True(t, s.Stat(h))

	got, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)

	// a second LocalStore over the same directory sees the same blob.
	s2, err := blob.NewLocalStore(dir, nil)
	require.NoError(t, err)
	require.True(t, s2.Stat(h))
}

func TestLocalStoreGetMissing(t *testing.T) {
	s, err := blob.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = s.Get(ld.SumHash([]byte("nope")))
	require.ErrorIs(t, err, blob.ErrNotFound)
}

type fakeFetcher struct {
	byPeer map[keys.PublicKey][]byte              // single fixed blob per peer
	byHash map[keys.PublicKey]map[ld.Hash][]byte // hash-routed, when set takes precedence
}

func (f *fakeFetcher) FetchBlob(_ context.Context, peer keys.PublicKey, h ld.Hash) ([]byte, error) {
	if byHash, ok := f.byHash[peer]; ok {
		data, ok := byHash[h]
		if !ok {
			return nil, os.ErrNotExist
		}
		return data, nil
	}
	data, ok := f.byPeer[peer]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func TestDownloadHashSucceedsFromAnyPeer(t *testing.T) {
	s := blob.NewMemStore()
	peerA, _, err := keys.Generate()
	require.NoError(t, err)
	peerB, _, err := keys.Generate()
	require.NoError(t, err)

	content := []byte("remote content")
	h := ld.SumHash(content)

	fetcher := &fakeFetcher{byPeer: map[keys.PublicKey][]byte{peerB: content}}

	err = blob.DownloadHash(context.Background(), s, h, []keys.PublicKey{peerA, peerB}, fetcher)
	require.NoError(t, err)
	require.True(t, s.Stat(h))
}

func TestDownloadHashFailsWhenNoPeerHasIt(t *testing.T) {
	s := blob.NewMemStore()
	peerA, _, err := keys.Generate()
	require.NoError(t, err)

	h := ld.SumHash([]byte("anything"))
	fetcher := &fakeFetcher{byPeer: map[keys.PublicKey][]byte{}}

	err = blob.DownloadHash(context.Background(), s, h, []keys.PublicKey{peerA}, fetcher)
	require.ErrorIs(t, err, blob.ErrDownloadFailed)
}

func TestDownloadHashListDownloadsEveryEntry(t *testing.T) {
	remote := blob.NewMemStore()
	h1, err := remote.Put([]byte("x"))
	require.NoError(t, err)
	h2, err := remote.Put([]byte("y"))
	require.NoError(t, err)
	listHash, err := remote.CreateHashList([]ld.Hash{h1, h2})
	require.NoError(t, err)

	listBlob, err := remote.Get(listHash)
	require.NoError(t, err)
	b1, err := remote.Get(h1)
	require.NoError(t, err)
	b2, err := remote.Get(h2)
	require.NoError(t, err)

	peer, _, err := keys.Generate()
	require.NoError(t, err)
	fetcher := &fakeFetcher{byHash: map[keys.PublicKey]map[ld.Hash][]byte{
		peer: {listHash: listBlob, h1: b1, h2: b2},
	}}

	local := blob.NewMemStore()
	err = blob.DownloadHashList(context.Background(), local, listHash, []keys.PublicKey{peer}, fetcher)
	require.NoError(t, err)

	require.True(t, local.Stat(h1))
	require.True(t, local.Stat(h2))
	got, err := local.ReadHashList(listHash)
	require.NoError(t, err)
	require.Equal(t, []ld.Hash{h1, h2}, got)
}
