package pathops

import (
	"errors"

	"github.com/meshvault/meshvault/ld"
)

// OpType names the kind of mutation a PathOperation records.
type OpType string

const (
	OpAdd    OpType = "Add"
	OpRemove OpType = "Remove"
	OpMkdir  OpType = "Mkdir"
	OpMv     OpType = "Mv"
)

// ErrMvMissingFrom is returned by PathOperation validation when an Mv
// operation carries no source path.
var ErrMvMissingFrom = errors.New("pathops: Mv operation requires From")

// PathOperation is one entry in a bucket's path-operation log: a
// single CRDT mutation, timestamped by its OpId.
//
// Mv is represented as a single operation naming both the source (From)
// and destination (Path) rather than as a Remove+Add pair, so that a
// concurrent write to the source path can be detected as a conflict
// with the move.
type PathOperation struct {
	ID          OpId     `cbor:"id"`
	OpType      OpType   `cbor:"op"`
	Path        Path     `cbor:"path"`
	From        Path     `cbor:"from,omitempty"`
	ContentLink *ld.Link `cbor:"content,omitempty"`
	IsDir       bool     `cbor:"is_dir,omitempty"`
}

// Validate checks the internal consistency of an operation's shape.
func (op PathOperation) Validate() error {
	if op.OpType == OpMv && op.From == nil {
		return ErrMvMissingFrom
	}
	return nil
}

// AffectedPaths returns every path this operation writes to: one path
// for Add/Remove/Mkdir, and both From and Path for Mv.
func (op PathOperation) AffectedPaths() []Path {
	if op.OpType == OpMv {
		return []Path{op.From, op.Path}
	}
	return []Path{op.Path}
}
