package quictransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/wire"
)

// Transport is the concrete QUIC-based wire.Dialer and wire.Listener:
// one cached QUIC connection per peer address, a fresh stream per
// request/reply pair.
type Transport struct {
	book     AddressBook
	tlsConf  *tls.Config
	quicConf *quic.Config
	logger   *zap.SugaredLogger

	mu    sync.Mutex
	conns map[string]quic.Connection

	listener *quic.Listener
	streams  chan quic.Stream
	cancel   context.CancelFunc
}

// NewTransport builds a Transport that resolves peers through book. It
// generates its own ephemeral self-signed TLS certificate; see cert.go
// for why a permissionless overlay does not anchor identity in TLS.
func NewTransport(book AddressBook, logger *zap.SugaredLogger) (*Transport, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	tlsConf, err := selfSignedTLSConfig()
	if err != nil {
		return nil, err
	}
	return &Transport{
		book:     book,
		tlsConf:  tlsConf,
		quicConf: &quic.Config{},
		logger:   logger,
		conns:    make(map[string]quic.Connection),
	}, nil
}

// Open implements wire.Dialer: dial (or reuse a cached connection to)
// peer's address and open a fresh bidirectional stream on it.
func (t *Transport) Open(ctx context.Context, peer keys.PublicKey) (wire.Stream, error) {
	addr, ok := t.book.Addr(peer)
	if !ok {
		return nil, fmt.Errorf("quictransport: no known address for peer %s", peer)
	}
	conn, err := t.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("quictransport: opening stream to %s: %w", addr, err)
	}
	return stream, nil
}

// dial returns a cached connection to addr, or establishes and caches a
// new one. A connection whose context has already errored (closed by
// the peer, or timed out) is evicted and redialed.
func (t *Transport) dial(ctx context.Context, addr string) (quic.Connection, error) {
	t.mu.Lock()
	if conn, ok := t.conns[addr]; ok {
		if conn.Context().Err() == nil {
			t.mu.Unlock()
			return conn, nil
		}
		delete(t.conns, addr)
	}
	t.mu.Unlock()

	conn, err := quic.DialAddr(ctx, addr, t.tlsConf, t.quicConf)
	if err != nil {
		return nil, fmt.Errorf("quictransport: dialing %s: %w", addr, err)
	}

	t.mu.Lock()
	t.conns[addr] = conn
	t.mu.Unlock()
	return conn, nil
}

// Listen starts accepting inbound QUIC connections on addr. Every
// stream opened on any accepted connection is fed to Accept, so
// Listen must be called before Accept is first used.
func (t *Transport) Listen(addr string) error {
	l, err := quic.ListenAddr(addr, t.tlsConf, t.quicConf)
	if err != nil {
		return fmt.Errorf("quictransport: listening on %s: %w", addr, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.listener = l
	t.cancel = cancel
	t.streams = make(chan quic.Stream, 32)
	go t.acceptConnections(ctx)
	return nil
}

func (t *Transport) acceptConnections(ctx context.Context) {
	for {
		conn, err := t.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() == nil {
				t.logger.Warnw("quictransport: accept failed", "error", err)
			}
			return
		}
		go t.acceptStreams(ctx, conn)
	}
}

func (t *Transport) acceptStreams(ctx context.Context, conn quic.Connection) {
	for {
		s, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		select {
		case t.streams <- s:
		case <-ctx.Done():
			return
		}
	}
}

// Addr returns the local address this Transport is listening on, or
// "" if Listen has not been called.
func (t *Transport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

// Accept implements wire.Listener.
func (t *Transport) Accept(ctx context.Context) (wire.Stream, error) {
	select {
	case s := <-t.streams:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting new connections and closes every cached one.
func (t *Transport) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.listener != nil {
		_ = t.listener.Close()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for addr, conn := range t.conns {
		_ = conn.CloseWithError(0, "transport closed")
		delete(t.conns, addr)
	}
	return nil
}
