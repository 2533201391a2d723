package mount

import "errors"

// ErrPathNotFound is returned when a path does not resolve to any
// existing entry (rm, mv source, descending through a missing
// intermediate directory on a read path).
var ErrPathNotFound = errors.New("mount: path not found")

// ErrPathNotNode is returned when a path component that must be a
// directory resolves to a data entry instead.
var ErrPathNotNode = errors.New("mount: path component is not a directory")

// ErrPathAlreadyExists is returned by mkdir and mv when the destination
// name already exists.
var ErrPathAlreadyExists = errors.New("mount: path already exists")

// ErrMoveIntoSelf is returned by mv when the destination is the source
// or a descendant of it.
var ErrMoveIntoSelf = errors.New("mount: cannot move a path into itself")

// ErrShareNotFound is returned by Load when the manifest carries no
// share for the loading peer's public key.
var ErrShareNotFound = errors.New("mount: no share for this peer")

// ErrRootOperation is returned when rm or mkdir is attempted on the
// bucket root.
var ErrRootOperation = errors.New("mount: operation not valid on the bucket root")
