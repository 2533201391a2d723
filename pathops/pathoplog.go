// Package pathops implements the path-operation CRDT: an append-only,
// per-bucket log of filesystem mutations, each stamped with a Lamport
// clock, that two replicas can merge without a central coordinator.
package pathops

import (
	"sort"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
)

// PathOpLog is the append-only log of PathOperations for one bucket.
// The zero value is not ready for use; call New.
type PathOpLog struct {
	peerID     keys.PublicKey
	localClock uint64
	ops        map[OpId]PathOperation
}

// New returns an empty log that records operations under peerID.
func New(peerID keys.PublicKey) *PathOpLog {
	return &PathOpLog{peerID: peerID, ops: make(map[OpId]PathOperation)}
}

// Load reconstructs a log from a previously recorded set of operations,
// rebuilding localClock from the highest timestamp this peer has issued
// (localClock is never itself serialized).
func Load(peerID keys.PublicKey, ops []PathOperation) *PathOpLog {
	l := New(peerID)
	for _, op := range ops {
		l.ops[op.ID] = op
		if op.ID.PeerID == peerID && op.ID.Timestamp > l.localClock {
			l.localClock = op.ID.Timestamp
		}
	}
	return l
}

// nextOpId advances the local clock and mints the next OpId for this
// peer.
func (l *PathOpLog) nextOpId() OpId {
	l.localClock++
	return OpId{Timestamp: l.localClock, PeerID: l.peerID}
}

// Record appends a new locally-originated operation and returns its
// assigned OpId.
func (l *PathOpLog) Record(opType OpType, p Path, from Path, content *ld.Link, isDir bool) OpId {
	id := l.nextOpId()
	l.ops[id] = PathOperation{
		ID:          id,
		OpType:      opType,
		Path:        p,
		From:        from,
		ContentLink: content,
		IsDir:       isDir,
	}
	return id
}

// Operations returns every operation in the log, ordered by OpId.
func (l *PathOpLog) Operations() []PathOperation {
	out := make([]PathOperation, 0, len(l.ops))
	for _, op := range l.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// Len returns the number of operations recorded.
func (l *PathOpLog) Len() int { return len(l.ops) }

// IsEmpty reports whether the log has no operations recorded.
func (l *PathOpLog) IsEmpty() bool { return len(l.ops) == 0 }

// PeerID returns the peer this log records operations under.
func (l *PathOpLog) PeerID() keys.PublicKey { return l.peerID }

// Encode CBOR-encodes the log's operations (in total order) using
// codec — the plaintext Mount.save encrypts before storing as the
// ops-log blob.
func (l *PathOpLog) Encode(codec ld.CBORCodec) ([]byte, error) {
	return codec.Marshal(l.Operations())
}

// Decode parses a CBOR-encoded operation list using codec and
// reconstructs a log owned by peerID.
func Decode(codec ld.CBORCodec, peerID keys.PublicKey, data []byte) (*PathOpLog, error) {
	var ops []PathOperation
	if err := codec.Unmarshal(data, &ops); err != nil {
		return nil, err
	}
	return Load(peerID, ops), nil
}

// Has reports whether id is already present in the log.
func (l *PathOpLog) Has(id OpId) bool {
	_, ok := l.ops[id]
	return ok
}

// opsOnPath returns every operation in the log that writes to p, in
// log order.
func (l *PathOpLog) opsOnPath(p Path) []PathOperation {
	var out []PathOperation
	for _, op := range l.Operations() {
		for _, ap := range op.AffectedPaths() {
			if ap.Equal(p) {
				out = append(out, op)
				break
			}
		}
	}
	return out
}

// ResolvePath returns the winning operation for p — the one with the
// greatest OpId among every operation touching p — and whether any
// operation touches p at all.
func (l *PathOpLog) ResolvePath(p Path) (PathOperation, bool) {
	ops := l.opsOnPath(p)
	if len(ops) == 0 {
		return PathOperation{}, false
	}
	winner := ops[0]
	for _, op := range ops[1:] {
		if winner.ID.Less(op.ID) {
			winner = op
		}
	}
	return winner, true
}

// ResolveAll computes the current winning operation for every path that
// has ever been written to, keyed by the path's string form, excluding
// paths whose winner is a Remove — and, for an Mv winner, excluding its
// vacated source path (an Mv only materializes content at its
// destination; the source entry exists solely so a concurrent write to
// the old path can still be detected as a conflict with the move).
func (l *PathOpLog) ResolveAll() map[string]PathOperation {
	winners := make(map[string]PathOperation)
	for _, op := range l.Operations() {
		for _, p := range op.AffectedPaths() {
			key := p.String()
			cur, ok := winners[key]
			if !ok || cur.ID.Less(op.ID) {
				winners[key] = op
			}
		}
	}
	for k, op := range winners {
		if op.OpType == OpRemove {
			delete(winners, k)
			continue
		}
		if op.OpType == OpMv && k == op.From.String() {
			delete(winners, k)
		}
	}
	return winners
}
