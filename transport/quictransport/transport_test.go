package quictransport_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/transport/quictransport"
)

var errUnexpectedRequest = errors.New("quictransport_test: unexpected request bytes")

func TestOpenAcceptEchoesBytes(t *testing.T) {
	serverPub, _, err := keys.Generate()
	require.NoError(t, err)

	book := quictransport.NewStaticAddressBook()
	server, err := quictransport.NewTransport(book, nil)
	require.NoError(t, err)
	defer server.Close()
	require.NoError(t, server.Listen("127.0.0.1:0"))

	client, err := quictransport.NewTransport(book, nil)
	require.NoError(t, err)
	defer client.Close()

	book.Set(serverPub, server.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		stream, err := server.Accept(ctx)
		if err != nil {
			serverDone <- err
			return
		}
		buf := make([]byte, 5)
		if _, err := io.ReadFull(stream, buf); err != nil {
			serverDone <- err
			return
		}
		if string(buf) != "hello" {
			serverDone <- errUnexpectedRequest
			return
		}
		_, werr := stream.Write([]byte("world"))
		serverDone <- werr
	}()

	stream, err := client.Open(ctx, serverPub)
	require.NoError(t, err)
	_, err = stream.Write([]byte("hello"))
	require.NoError(t, err)

	reply := make([]byte, 5)
	_, err = io.ReadFull(stream, reply)
	require.NoError(t, err)
	require.Equal(t, "world", string(reply))

	require.NoError(t, <-serverDone)
}
