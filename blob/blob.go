// Package blob implements the content-addressed blob store:
// content-addressed put/get/stat, hash-list blobs, and peer-scoped
// download with verification.
package blob

import (
	"context"
	"errors"
	"io"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

// ErrNotFound is returned by Get when the requested hash is not present
// locally.
var ErrNotFound = errors.New("blob: hash not found")

// ErrInvalidHashList is returned by ReadHashList when a blob's length is
// not a multiple of 32 bytes.
var ErrInvalidHashList = errors.New("blob: hash-list blob length is not a multiple of 32")

// ErrDownloadFailed wraps the underlying cause when every peer attempt
// to fetch a hash is exhausted.
var ErrDownloadFailed = errors.New("blob: download failed from all peers")

// Store is the content-addressed blob store contract every backend
// (in-memory, local filesystem) implements.
type Store interface {
	// Put stores bytes and returns their BLAKE3 hash. Idempotent.
	Put(data []byte) (ld.Hash, error)
	// Get returns the bytes stored under h, or ErrNotFound.
	Get(h ld.Hash) ([]byte, error)
	// Stat reports whether the full blob is locally present.
	Stat(h ld.Hash) bool
	// PutStream stores the bytes read from r and returns their hash.
	PutStream(r io.Reader) (ld.Hash, error)
	// CreateHashList stores the concatenation of the given hashes as a
	// single blob and returns its hash.
	CreateHashList(hashes []ld.Hash) (ld.Hash, error)
	// ReadHashList retrieves and parses a hash-list blob.
	ReadHashList(h ld.Hash) ([]ld.Hash, error)
}

// PeerFetcher is the narrow transport capability blob.DownloadHash
// needs: fetch one blob's bytes from one peer. Concrete transports
// (quictransport) implement this without the blob package depending on
// them.
type PeerFetcher interface {
	FetchBlob(ctx context.Context, peer keys.PublicKey, h ld.Hash) ([]byte, error)
}
