package syncjobs

import "errors"

// ErrChainDiverged is returned when a bucket we already track has no
// manifest link in common with an advertised remote chain. This is a
// fork with no join point; it is surfaced, not automatically
// reconciled.
var ErrChainDiverged = errors.New("syncjobs: remote chain has no common ancestor with the local log")

// ErrProvenanceRejected is returned when the newest manifest in a
// downloaded chain carries no share for our own public key. No log
// mutation happens when this fires.
var ErrProvenanceRejected = errors.New("syncjobs: our key is not a share principal in the incoming manifest")

// ErrCyclicChain is returned when walking a manifest chain (backward via
// Previous links) revisits a link already seen — the Merkle DAG is
// acyclic by construction, so this only fires against a corrupted or
// malicious manifest.
var ErrCyclicChain = errors.New("syncjobs: manifest chain revisits a link")
