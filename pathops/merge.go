package pathops

// MergeResult summarizes the outcome of merging a remote log into a
// local one.
type MergeResult struct {
	Added    int
	Rejected int
	Forked   int
}

// HadConflicts reports whether the resolver rejected or forked any
// incoming operation. A concurrent write the resolver accepted does not
// count.
func (r MergeResult) HadConflicts() bool {
	return r.Rejected > 0 || r.Forked > 0
}

// Merge applies other's operations to l using LastWriteWinsResolver,
// the default conflict policy.
func (l *PathOpLog) Merge(other *PathOpLog) MergeResult {
	return l.MergeWithResolver(other, LastWriteWinsResolver{})
}

// MergeWithResolver applies every operation in other that l does not
// already have, using resolver to adjudicate any operation that writes
// to a path a concurrent local operation also writes to.
//
// Two operations are concurrent, per OpId.Concurrent, whenever they
// were issued by different peers — same-peer operations are already
// totally ordered by their Lamport timestamps and never conflict.
func (l *PathOpLog) MergeWithResolver(other *PathOpLog, resolver ConflictResolver) MergeResult {
	var result MergeResult
	for _, incoming := range other.Operations() {
		if l.Has(incoming.ID) {
			continue
		}

		base, hasConflict := l.findConcurrentOnPath(incoming)
		if !hasConflict {
			l.insert(incoming)
			result.Added++
			if incoming.ID.Timestamp > l.localClock {
				l.localClock = incoming.ID.Timestamp
			}
			continue
		}

		switch resolver.Resolve(Conflict{Base: base, Incoming: incoming}) {
		case ResolutionKeepBase:
			result.Rejected++
		case ResolutionFork:
			forked := incoming
			forked.Path = ForkedPath(incoming.Path, incoming.ID.PeerID.String())
			l.insert(forked)
			result.Forked++
		default: // ResolutionAcceptIncoming
			l.insert(incoming)
			result.Added++
		}
		if incoming.ID.Timestamp > l.localClock {
			l.localClock = incoming.ID.Timestamp
		}
	}
	return result
}

// findConcurrentOnPath looks for an existing local operation that
// writes to one of incoming's affected paths and is concurrent with
// it. The first such operation found is returned.
func (l *PathOpLog) findConcurrentOnPath(incoming PathOperation) (PathOperation, bool) {
	for _, p := range incoming.AffectedPaths() {
		for _, existing := range l.opsOnPath(p) {
			if existing.ID.Equal(incoming.ID) {
				continue
			}
			if existing.ID.Concurrent(incoming.ID) {
				return existing, true
			}
		}
	}
	return PathOperation{}, false
}

func (l *PathOpLog) insert(op PathOperation) {
	if l.ops == nil {
		l.ops = make(map[OpId]PathOperation)
	}
	l.ops[op.ID] = op
}
