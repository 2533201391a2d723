package wire

import (
	"context"
	"io"

	"github.com/meshvault/meshvault/keys"
)

// Stream is the narrow capability wire needs from a concrete transport:
// a bidirectional byte stream for exactly one request/reply pair.
// Close finishes the local send half — a FIN, not a full teardown — so
// the peer's read-to-EOF completes while this side can still read the
// reply, matching quic-go's Stream.Close semantics exactly.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Dialer opens a fresh Stream to peer, used by the client side of every
// RPC in this package. Concrete transports (transport/quictransport)
// implement this without wire depending on them.
type Dialer interface {
	Open(ctx context.Context, peer keys.PublicKey) (Stream, error)
}

// Listener accepts incoming Streams, one per request/reply pair, used
// by Serve. Concrete transports implement this too.
type Listener interface {
	Accept(ctx context.Context) (Stream, error)
}

// Handler answers the two request kinds this protocol defines. The
// sender's public key has already been authenticated by the time a
// Handler method is called: the envelope carries its own signature.
type Handler interface {
	HandlePing(ctx context.Context, from keys.PublicKey, req PingRequest) (PingReply, error)
	HandleFetchBlob(ctx context.Context, from keys.PublicKey, req FetchBlobRequest) (FetchBlobReply, error)
}
