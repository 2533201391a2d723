package pathops

import (
	"bytes"

	"github.com/meshvault/meshvault/keys"
)

// OpId is a Lamport clock stamp: a per-peer monotonic timestamp paired
// with the peer's identity, giving every operation a unique position in
// a total order.
type OpId struct {
	Timestamp uint64         `cbor:"ts"`
	PeerID    keys.PublicKey `cbor:"peer"`
}

// Less implements the total order used to pick a single winner among
// concurrent writes: primarily by timestamp, and for a tie (which only
// two distinct peers can produce) by the peer id's byte order.
func (id OpId) Less(o OpId) bool {
	if id.Timestamp != o.Timestamp {
		return id.Timestamp < o.Timestamp
	}
	return id.PeerID.Less(o.PeerID)
}

// Equal reports whether id and o name the same operation.
func (id OpId) Equal(o OpId) bool {
	return id.Timestamp == o.Timestamp && bytes.Equal(id.PeerID[:], o.PeerID[:])
}

// HappensBefore implements the causal relation: an operation happens
// before another only when both were issued by the same peer and the
// first carries the smaller timestamp. Operations from distinct peers
// are never ordered by this relation — two ops on the same path from
// different peers are concurrent.
func (id OpId) HappensBefore(o OpId) bool {
	return bytes.Equal(id.PeerID[:], o.PeerID[:]) && id.Timestamp < o.Timestamp
}

// Concurrent reports whether neither id nor o happens before the other.
func (id OpId) Concurrent(o OpId) bool {
	return !id.HappensBefore(o) && !o.HappensBefore(id)
}
