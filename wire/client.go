package wire

import (
	"context"
	"fmt"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

// Ping opens a stream to peer via dialer, sends req, and waits for the
// signed PingReply.
func Ping(ctx context.Context, dialer Dialer, codec ld.CBORCodec, self keys.SecretKey, peer keys.PublicKey, req PingRequest) (PingReply, error) {
	stream, err := dialer.Open(ctx, peer)
	if err != nil {
		return PingReply{}, fmt.Errorf("wire: dialing %s: %w", peer, err)
	}

	reqBytes, err := signEnvelope(codec, self, KindPingRequest, req)
	if err != nil {
		return PingReply{}, err
	}
	if _, err := stream.Write(reqBytes); err != nil {
		return PingReply{}, fmt.Errorf("wire: writing ping request: %w", err)
	}
	if err := stream.Close(); err != nil {
		return PingReply{}, fmt.Errorf("wire: finishing send half: %w", err)
	}

	data, err := readAllCapped(stream)
	if err != nil {
		return PingReply{}, err
	}
	replySender, kind, payload, err := verifyEnvelope(codec, data)
	if err != nil {
		return PingReply{}, err
	}
	if replySender != peer {
		return PingReply{}, fmt.Errorf("wire: ping reply signed by %s, expected %s", replySender, peer)
	}
	if kind != KindPingReply {
		return PingReply{}, fmt.Errorf("wire: expected ping reply, got kind %d", kind)
	}
	var reply PingReply
	if err := codec.Unmarshal(payload, &reply); err != nil {
		return PingReply{}, fmt.Errorf("wire: decoding ping reply: %w", err)
	}
	return reply, nil
}

// FetchBlob opens a stream to peer and requests one blob by hash,
// returning its bytes and whether peer had it. The reply travels as a
// raw found/not-found byte plus body, not a signed envelope.
func FetchBlob(ctx context.Context, dialer Dialer, codec ld.CBORCodec, self keys.SecretKey, peer keys.PublicKey, req FetchBlobRequest) (FetchBlobReply, error) {
	stream, err := dialer.Open(ctx, peer)
	if err != nil {
		return FetchBlobReply{}, fmt.Errorf("wire: dialing %s: %w", peer, err)
	}

	reqBytes, err := signEnvelope(codec, self, KindFetchBlobRequest, req)
	if err != nil {
		return FetchBlobReply{}, err
	}
	if _, err := stream.Write(reqBytes); err != nil {
		return FetchBlobReply{}, fmt.Errorf("wire: writing fetch-blob request: %w", err)
	}
	if err := stream.Close(); err != nil {
		return FetchBlobReply{}, fmt.Errorf("wire: finishing send half: %w", err)
	}

	found, data, err := readBlobReply(stream)
	if err != nil {
		return FetchBlobReply{}, err
	}
	return FetchBlobReply{Found: found, Data: data}, nil
}
