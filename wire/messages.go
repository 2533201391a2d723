package wire

import (
	"github.com/google/uuid"

	"github.com/meshvault/meshvault/ld"
)

// Kind tags the type of a signed envelope's payload, the outer
// discriminant of the envelope's tagged-union encoding.
type Kind uint8

const (
	KindPingRequest Kind = iota + 1
	KindPingReply
	KindFetchBlobRequest
)

// PingRequest advertises the sender's current head for a bucket.
type PingRequest struct {
	BucketID uuid.UUID `cbor:"bucket_id"`
	Link     ld.Link   `cbor:"link"`
	Height   uint64    `cbor:"height"`
}

// PingReplyStatus is the recipient's determination of its position
// relative to the advertised link.
type PingReplyStatus uint8

const (
	// PingStatusNotFound means the recipient has no such bucket.
	PingStatusNotFound PingReplyStatus = iota
	// PingStatusInSync means the recipient's head equals the
	// advertised link.
	PingStatusInSync
	// PingStatusBehind means the advertiser is ahead of the recipient.
	PingStatusBehind
	// PingStatusAhead means the recipient is ahead of the advertiser.
	PingStatusAhead
)

// PingReply is the recipient's reply to a PingRequest.
type PingReply struct {
	Status PingReplyStatus `cbor:"status"`
	Link   *ld.Link        `cbor:"link"`
	Height uint64          `cbor:"height"`
}

// FetchBlobRequest asks the recipient for one content-addressed blob.
type FetchBlobRequest struct {
	Hash ld.Hash `cbor:"hash"`
}

// FetchBlobReply carries the result of a FetchBlobRequest. Unlike
// Ping's request/reply pair, this reply is framed raw (see
// blobreply.go) rather than as a signed CBOR envelope, since its Data
// field is exactly the unbounded payload exempt from the 1 MiB cap.
type FetchBlobReply struct {
	Found bool
	Data  []byte
}
