package wire

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

// Serve accepts streams from listener until ctx is cancelled, handling
// each one as a single request/reply pair dispatched to h. One goroutine
// per stream, each scoped to acquiring and releasing its own transport
// stream.
func Serve(ctx context.Context, listener Listener, codec ld.CBORCodec, self keys.SecretKey, h Handler, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	for {
		stream, err := listener.Accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("wire: accept: %w", err)
		}
		go func() {
			if err := handleStream(ctx, stream, codec, self, h, logger); err != nil {
				logger.Warnw("wire: stream handling failed", "error", err)
			}
		}()
	}
}

func handleStream(ctx context.Context, stream Stream, codec ld.CBORCodec, self keys.SecretKey, h Handler, logger *zap.SugaredLogger) error {
	defer stream.Close()

	data, err := readAllCapped(stream)
	if err != nil {
		return err
	}
	sender, kind, payload, err := verifyEnvelope(codec, data)
	if err != nil {
		return err
	}

	switch kind {
	case KindPingRequest:
		var req PingRequest
		if err := codec.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("wire: decoding ping request: %w", err)
		}
		reply, err := h.HandlePing(ctx, sender, req)
		if err != nil {
			return fmt.Errorf("wire: handling ping from %s: %w", sender, err)
		}
		replyBytes, err := signEnvelope(codec, self, KindPingReply, reply)
		if err != nil {
			return err
		}
		_, err = stream.Write(replyBytes)
		return err

	case KindFetchBlobRequest:
		var req FetchBlobRequest
		if err := codec.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("wire: decoding fetch-blob request: %w", err)
		}
		reply, err := h.HandleFetchBlob(ctx, sender, req)
		if err != nil {
			logger.Warnw("wire: fetch-blob handler error", "hash", req.Hash, "error", err)
			return writeBlobReply(stream, false, nil)
		}
		return writeBlobReply(stream, reply.Found, reply.Data)

	default:
		return fmt.Errorf("wire: unknown message kind %d from %s", kind, sender)
	}
}
