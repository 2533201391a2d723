package wire_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/wire"
)

// duplexStream is a Stream backed by two io.Pipe halves, so Close only
// finishes this side's send half (as a real QUIC stream would) while
// reads from the peer's still-open send half keep working — unlike a
// plain net.Pipe, whose Close tears down both directions at once.
type duplexStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (s *duplexStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *duplexStream) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *duplexStream) Close() error                { return s.w.Close() }

// newDuplex returns two connected Streams, each one's writes visible as
// the other's reads.
func newDuplex() (a, b *duplexStream) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	return &duplexStream{r: r1, w: w2}, &duplexStream{r: r2, w: w1}
}

type pipeDialer struct {
	stream wire.Stream
}

func (d *pipeDialer) Open(ctx context.Context, peer keys.PublicKey) (wire.Stream, error) {
	return d.stream, nil
}

// oneShotListener hands out a single preconnected Stream, then blocks
// until ctx is cancelled.
type oneShotListener struct {
	mu     sync.Mutex
	stream wire.Stream
	served bool
}

func (l *oneShotListener) Accept(ctx context.Context) (wire.Stream, error) {
	l.mu.Lock()
	if !l.served {
		l.served = true
		s := l.stream
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

type stubHandler struct {
	pingReply wire.PingReply
	blobData  []byte
	blobFound bool
}

func (h *stubHandler) HandlePing(ctx context.Context, from keys.PublicKey, req wire.PingRequest) (wire.PingReply, error) {
	return h.pingReply, nil
}

func (h *stubHandler) HandleFetchBlob(ctx context.Context, from keys.PublicKey, req wire.FetchBlobRequest) (wire.FetchBlobReply, error) {
	return wire.FetchBlobReply{Found: h.blobFound, Data: h.blobData}, nil
}

func TestPingRoundTrip(t *testing.T) {
	codec, err := ld.NewCBORCodec()
	require.NoError(t, err)

	_, clientSK, err := keys.Generate()
	require.NoError(t, err)
	serverPub, serverSK, err := keys.Generate()
	require.NoError(t, err)

	clientSide, serverSide := newDuplex()
	h := &stubHandler{pingReply: wire.PingReply{Status: wire.PingStatusInSync, Height: 4}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = wire.Serve(ctx, &oneShotListener{stream: serverSide}, codec, serverSK, h, nil)
	}()

	reply, err := wire.Ping(ctx, &pipeDialer{stream: clientSide}, codec, clientSK, serverPub, wire.PingRequest{Height: 3})
	require.NoError(t, err)
	require.Equal(t, wire.PingStatusInSync, reply.Status)
	require.Equal(t, uint64(4), reply.Height)
}

func TestFetchBlobRoundTrip(t *testing.T) {
	codec, err := ld.NewCBORCodec()
	require.NoError(t, err)

	_, clientSK, err := keys.Generate()
	require.NoError(t, err)
	serverPub, serverSK, err := keys.Generate()
	require.NoError(t, err)

	clientSide, serverSide := newDuplex()
	want := []byte("hello blob")
	h := &stubHandler{blobFound: true, blobData: want}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = wire.Serve(ctx, &oneShotListener{stream: serverSide}, codec, serverSK, h, nil)
	}()

	reply, err := wire.FetchBlob(ctx, &pipeDialer{stream: clientSide}, codec, clientSK, serverPub, wire.FetchBlobRequest{Hash: ld.SumHash(want)})
	require.NoError(t, err)
	require.True(t, reply.Found)
	require.Equal(t, want, reply.Data)
}

func TestFetchBlobNotFound(t *testing.T) {
	codec, err := ld.NewCBORCodec()
	require.NoError(t, err)

	_, clientSK, err := keys.Generate()
	require.NoError(t, err)
	serverPub, serverSK, err := keys.Generate()
	require.NoError(t, err)

	clientSide, serverSide := newDuplex()
	h := &stubHandler{blobFound: false}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = wire.Serve(ctx, &oneShotListener{stream: serverSide}, codec, serverSK, h, nil)
	}()

	reply, err := wire.FetchBlob(ctx, &pipeDialer{stream: clientSide}, codec, clientSK, serverPub, wire.FetchBlobRequest{Hash: ld.SumHash([]byte("missing"))})
	require.NoError(t, err)
	require.False(t, reply.Found)
	require.Empty(t, reply.Data)
}
