package peer

import "errors"

// ErrUnknownBucket is returned when a bucket id carries no entries in
// the bucket log.
var ErrUnknownBucket = errors.New("peer: unknown bucket")

// ErrConcurrentHeads is returned by Mount when a bucket's current
// height has more than one recorded head — distinct peers saved
// concurrently and no merge has collapsed them yet. Callers must load
// each head explicitly and reconcile via mount.MergeFrom.
var ErrConcurrentHeads = errors.New("peer: bucket has concurrent heads, merge required")
