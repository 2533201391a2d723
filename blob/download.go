package blob

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

// ErrHashMismatch is returned when a peer's response does not hash to
// the requested value.
var ErrHashMismatch = errors.New("blob: fetched bytes do not match requested hash")

// DownloadHash ensures h is present in s, fetching it from peers (tried
// in shuffled order, first success wins) via fetcher if it is not
// already local. A no-op if s already has h.
func DownloadHash(ctx context.Context, s Store, h ld.Hash, peers []keys.PublicKey, fetcher PeerFetcher) error {
	if s.Stat(h) {
		return nil
	}
	order := shuffledPeers(peers)
	var lastErr error
	for _, p := range order {
		data, err := fetcher.FetchBlob(ctx, p, h)
		if err != nil {
			lastErr = err
			continue
		}
		got := ld.SumHash(data)
		if got != h {
			lastErr = ErrHashMismatch
			continue
		}
		if _, err := s.Put(data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no peers offered")
	}
	return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, h, lastErr)
}

// DownloadHashList downloads the hash-list blob itself, reads it, and
// downloads every referenced hash. Any single failure is fatal to the
// whole operation.
func DownloadHashList(ctx context.Context, s Store, h ld.Hash, peers []keys.PublicKey, fetcher PeerFetcher) error {
	if err := DownloadHash(ctx, s, h, peers, fetcher); err != nil {
		return err
	}
	list, err := s.ReadHashList(h)
	if err != nil {
		return err
	}
	for _, entry := range list {
		if err := DownloadHash(ctx, s, entry, peers, fetcher); err != nil {
			return err
		}
	}
	return nil
}

// shuffledPeers returns a copy of peers in random order, giving every
// peer an equal chance of being tried first.
func shuffledPeers(peers []keys.PublicKey) []keys.PublicKey {
	out := append([]keys.PublicKey(nil), peers...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
