package syncjobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/bucketlog"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/wire"
)

// Deps bundles everything job execution needs, following the peer
// facade's explicit-dependency style rather than reaching for globals.
type Deps struct {
	Logs   bucketlog.Log
	Blobs  blob.Store
	Dialer wire.Dialer
	Codec  ld.CBORCodec
	Self   keys.SecretKey
	Logger *zap.SugaredLogger
}

func (d Deps) logger() *zap.SugaredLogger {
	if d.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return d.Logger
}

// wireFetcher adapts the wire protocol's FetchBlob RPC to blob.PeerFetcher,
// letting blob.DownloadHash/DownloadHashList drive peer downloads without
// the blob package depending on wire.
type wireFetcher struct {
	dialer wire.Dialer
	codec  ld.CBORCodec
	self   keys.SecretKey
}

func (f wireFetcher) FetchBlob(ctx context.Context, peer keys.PublicKey, h ld.Hash) ([]byte, error) {
	reply, err := wire.FetchBlob(ctx, f.dialer, f.codec, f.self, peer, wire.FetchBlobRequest{Hash: h})
	if err != nil {
		return nil, err
	}
	if !reply.Found {
		return nil, fmt.Errorf("%w: peer %s does not have it", blob.ErrNotFound, peer)
	}
	return reply.Data, nil
}

func (d Deps) fetcher() blob.PeerFetcher {
	return wireFetcher{dialer: d.Dialer, codec: d.Codec, self: d.Self}
}
