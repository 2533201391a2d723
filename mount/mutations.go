package mount

import (
	"errors"

	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/node"
	"github.com/meshvault/meshvault/pathops"
	"github.com/meshvault/meshvault/pins"
	"github.com/meshvault/meshvault/secret"
)

// frame is one level of the path walked from the bucket root down to
// the node holding the entry being mutated: node is the directory at
// this depth, and name is the child name used to continue the descent
// (or, on the last frame, the name of the entry actually being edited).
type frame struct {
	node *node.Node
	name string
}

// edit is the working state of one in-flight mutation: a cloned root
// and cloned pin set that only replace the Mount's own on commit, so a
// failed mutation leaves the Mount untouched.
type edit struct {
	root *node.Node
	pins *pins.Pins
}

func (m *Mount) beginEdit() *edit {
	return &edit{root: m.Entry.Clone(), pins: m.Pins.Clone()}
}

func (m *Mount) commitEdit(e *edit) {
	m.Entry = e.root
	m.Pins = e.pins
}

// descend walks p from e.root, loading (and decrypting) each
// intermediate directory. When createIntermediate is true, a missing
// intermediate directory is created in memory rather than failing —
// used by add, mkdir, and the destination side of mv; rm and the
// source side of mv always fail ErrPathNotFound on a missing
// component.
func (m *Mount) descend(e *edit, p pathops.Path, createIntermediate bool) ([]frame, error) {
	if p.IsRoot() {
		return nil, ErrRootOperation
	}
	frames := make([]frame, 0, len(p))
	current := e.root
	for i, name := range p {
		frames = append(frames, frame{node: current, name: name})
		if i == len(p)-1 {
			break
		}
		nl, ok := current.GetLink(name)
		if !ok {
			if !createIntermediate {
				return nil, ErrPathNotFound
			}
			current = node.New()
			continue
		}
		if !nl.IsDir() {
			return nil, ErrPathNotNode
		}
		child, err := loadEncryptedNode(m.blobs, m.codec, nl.Link, nl.Secret)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return frames, nil
}

// propagate re-encrypts every ancestor from the deepest modified
// directory up to (but not including) the root under a fresh Secret,
// rewriting each parent's NodeLink to match, and pins every newly
// written node blob. The root itself (frames[0]) is left for Save to
// encrypt.
func (m *Mount) propagate(e *edit, frames []frame) error {
	for i := len(frames) - 1; i >= 1; i-- {
		s, err := secret.Generate()
		if err != nil {
			return err
		}
		link, err := storeEncryptedNode(m.blobs, m.codec, frames[i].node, s)
		if err != nil {
			return err
		}
		e.pins.AddLink(link)
		frames[i-1].node.Insert(frames[i-1].name, node.NewDirLink(link, s))
	}
	return nil
}

// Add inserts data at path, encrypted under a fresh per-file Secret,
// with a mime type inferred from the path's extension.
func (m *Mount) Add(path string, data []byte) error {
	p := pathops.NewPath(path)
	e := m.beginEdit()
	frames, err := m.descend(e, p, true)
	if err != nil {
		return err
	}

	dataSecret, err := secret.Generate()
	if err != nil {
		return err
	}
	cipher, err := dataSecret.Encrypt(data)
	if err != nil {
		return err
	}
	h, err := m.blobs.Put(cipher)
	if err != nil {
		return err
	}
	link := ld.NewRawLink(h)
	e.pins.AddLink(link)

	leaf := frames[len(frames)-1]
	leaf.node.Insert(leaf.name, node.NewDataLinkFromPath(link, dataSecret, p.Base()))

	if err := m.propagate(e, frames); err != nil {
		return err
	}
	m.commitEdit(e)
	m.OpsLog.Record(pathops.OpAdd, p, nil, &link, false)
	return nil
}

// Rm removes the entry at path. Fails ErrRootOperation at the bucket
// root and ErrPathNotFound if path does not resolve.
func (m *Mount) Rm(path string) error {
	p := pathops.NewPath(path)
	e := m.beginEdit()
	frames, err := m.descend(e, p, false)
	if err != nil {
		return err
	}
	leaf := frames[len(frames)-1]
	nl, ok := leaf.node.GetLink(leaf.name)
	if !ok {
		return ErrPathNotFound
	}
	leaf.node.Del(leaf.name)

	if err := m.propagate(e, frames); err != nil {
		return err
	}
	m.commitEdit(e)
	m.OpsLog.Record(pathops.OpRemove, p, nil, nil, nl.IsDir())
	return nil
}

// Mkdir creates an empty directory at path. Fails ErrRootOperation at
// the bucket root and ErrPathAlreadyExists if the name already exists.
func (m *Mount) Mkdir(path string) error {
	p := pathops.NewPath(path)
	e := m.beginEdit()
	frames, err := m.descend(e, p, true)
	if err != nil {
		return err
	}
	leaf := frames[len(frames)-1]
	if _, exists := leaf.node.GetLink(leaf.name); exists {
		return ErrPathAlreadyExists
	}

	dirSecret, err := secret.Generate()
	if err != nil {
		return err
	}
	link, err := storeEncryptedNode(m.blobs, m.codec, node.New(), dirSecret)
	if err != nil {
		return err
	}
	e.pins.AddLink(link)
	leaf.node.Insert(leaf.name, node.NewDirLink(link, dirSecret))

	if err := m.propagate(e, frames); err != nil {
		return err
	}
	m.commitEdit(e)
	m.OpsLog.Record(pathops.OpMkdir, p, nil, nil, true)
	return nil
}

// Mv moves the entry at from to to, creating destination intermediate
// directories as needed. The moved subtree is not re-encrypted; only
// the ancestors on the source and destination paths are. Fails
// ErrMoveIntoSelf if to is from or a descendant of it, and
// ErrPathAlreadyExists if to already resolves.
func (m *Mount) Mv(from, to string) error {
	pf := pathops.NewPath(from)
	pt := pathops.NewPath(to)

	if pt.HasPrefix(pf) {
		return ErrMoveIntoSelf
	}

	e := m.beginEdit()

	switch _, err := m.resolveLinkFrom(e.root, pt); {
	case err == nil:
		return ErrPathAlreadyExists
	case !errors.Is(err, ErrPathNotFound):
		return err
	}

	srcFrames, err := m.descend(e, pf, false)
	if err != nil {
		return err
	}
	srcLeaf := srcFrames[len(srcFrames)-1]
	nl, ok := srcLeaf.node.GetLink(srcLeaf.name)
	if !ok {
		return ErrPathNotFound
	}
	srcLeaf.node.Del(srcLeaf.name)
	if err := m.propagate(e, srcFrames); err != nil {
		return err
	}

	destFrames, err := m.descend(e, pt, true)
	if err != nil {
		return err
	}
	destLeaf := destFrames[len(destFrames)-1]
	destLeaf.node.Insert(destLeaf.name, nl)
	if err := m.propagate(e, destFrames); err != nil {
		return err
	}

	m.commitEdit(e)
	contentLink := nl.Link
	m.OpsLog.Record(pathops.OpMv, pt, pf, &contentLink, nl.IsDir())
	return nil
}
