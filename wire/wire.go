// Package wire implements the peer-to-peer message framing for bucket
// sync: a single ALPN identifier, one bidirectional stream per
// request/reply pair, CBOR-encoded tagged messages wrapped in a
// COSE_Sign1 envelope so every request is self-authenticating to the
// sender's Ed25519 identity, and a 1 MiB cap on control messages.
package wire

import (
	"errors"
)

// ALPN is the single opaque protocol identifier every bucket-sync
// connection negotiates.
var ALPN = []byte("meshvault/bucket-sync/1")

// MaxMessageSize is the 1 MiB hard cap on a signed control message. It
// does not bound FetchBlob replies, which carry the blob content itself
// rather than being inlined into a control message.
const MaxMessageSize = 1 << 20

// ErrMessageTooLarge is returned when a signed envelope exceeds
// MaxMessageSize, either while encoding a request/reply or while
// reading one off the wire.
var ErrMessageTooLarge = errors.New("wire: message exceeds 1 MiB limit")

// ErrUnauthenticated is returned when a received envelope's COSE
// signature does not verify under the sender key it claims.
var ErrUnauthenticated = errors.New("wire: signature verification failed")

// ErrMissingSender is returned when a received envelope carries no
// (or an invalid) key-id header to identify its sender.
var ErrMissingSender = errors.New("wire: missing or invalid sender key id")
