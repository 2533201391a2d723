package pathops

import "fmt"

// Resolution is the outcome a ConflictResolver picks for one conflicting
// incoming operation.
type Resolution int

const (
	// ResolutionAcceptIncoming keeps both the base and incoming operation
	// in the log; the total order (OpId.Less) picks the visible winner.
	ResolutionAcceptIncoming Resolution = iota
	// ResolutionKeepBase discards the incoming operation entirely.
	ResolutionKeepBase
	// ResolutionFork renames the incoming operation's path so that both
	// the base and incoming writes survive side by side.
	ResolutionFork
)

// Conflict describes one incoming operation that writes to a path an
// existing, concurrent operation in the log also writes to.
type Conflict struct {
	Base     PathOperation
	Incoming PathOperation
}

// ConflictResolver decides how a merge should handle one Conflict.
type ConflictResolver interface {
	Resolve(c Conflict) Resolution
}

// LastWriteWinsResolver keeps every concurrent write in the log and
// lets the total order on OpId (highest timestamp, then peer id) decide
// which one ResolvePath reports as current.
type LastWriteWinsResolver struct{}

func (LastWriteWinsResolver) Resolve(Conflict) Resolution {
	return ResolutionAcceptIncoming
}

// BaseWinsResolver always keeps whatever is already present locally,
// silently dropping conflicting incoming operations.
type BaseWinsResolver struct{}

func (BaseWinsResolver) Resolve(Conflict) Resolution {
	return ResolutionKeepBase
}

// ForkOnConflictResolver renames the incoming write to
// "<stem>@<8 hex chars of the issuing peer's id><ext>" so neither write
// is lost and both are addressable afterwards.
type ForkOnConflictResolver struct{}

func (ForkOnConflictResolver) Resolve(Conflict) Resolution {
	return ResolutionFork
}

// ForkedPath computes the renamed path ForkOnConflict writes the
// incoming operation under.
func ForkedPath(p Path, peerHex string) Path {
	if len(peerHex) > 8 {
		peerHex = peerHex[:8]
	}
	stem, ext := splitStemExt(p.Base())
	return p.WithBase(fmt.Sprintf("%s@%s%s", stem, peerHex, ext))
}

// ConflictFileResolver behaves like ForkOnConflictResolver but also
// appends every conflict it resolves to Conflicts, mirroring the FUSE
// adapter's need to surface a list of conflict files to the user — the
// adapter itself is out of scope, but the bookkeeping hook is not.
type ConflictFileResolver struct {
	Conflicts []Conflict
}

func (r *ConflictFileResolver) Resolve(c Conflict) Resolution {
	r.Conflicts = append(r.Conflicts, c)
	return ResolutionFork
}
