package mount

import (
	"fmt"

	"github.com/meshvault/meshvault/node"
	"github.com/meshvault/meshvault/pathops"
)

// Ls lists the names of the directory at path. Fails ErrPathNotFound
// if path does not resolve, ErrPathNotNode if it resolves to a data
// entry.
func (m *Mount) Ls(path string) ([]string, error) {
	p := pathops.NewPath(path)
	dir, err := m.resolveDir(p)
	if err != nil {
		return nil, err
	}
	return dir.Names(), nil
}

// Cat returns the decrypted bytes of the data entry at path. Fails
// ErrPathNotFound if path does not resolve, ErrPathNotNode if it
// resolves to a directory.
func (m *Mount) Cat(path string) ([]byte, error) {
	p := pathops.NewPath(path)
	if p.IsRoot() {
		return nil, ErrPathNotNode
	}
	nl, err := m.resolveLink(p)
	if err != nil {
		return nil, err
	}
	if nl.IsDir() {
		return nil, ErrPathNotNode
	}
	cipher, err := m.blobs.Get(nl.Link.Hash)
	if err != nil {
		return nil, fmt.Errorf("mount: cat: fetching %s: %w", path, err)
	}
	plain, err := nl.Secret.Decrypt(cipher)
	if err != nil {
		return nil, fmt.Errorf("mount: cat: decrypting %s: %w", path, err)
	}
	return plain, nil
}

// resolveDir walks p from the root, returning the (decrypted) Node it
// names. The root itself resolves to m.Entry directly.
func (m *Mount) resolveDir(p pathops.Path) (*node.Node, error) {
	if p.IsRoot() {
		return m.Entry, nil
	}
	nl, err := m.resolveLink(p)
	if err != nil {
		return nil, err
	}
	if !nl.IsDir() {
		return nil, ErrPathNotNode
	}
	return loadEncryptedNode(m.blobs, m.codec, nl.Link, nl.Secret)
}

// resolveLink walks p from the root and returns the NodeLink named by
// its final component, failing ErrPathNotFound if any component along
// the way is missing.
func (m *Mount) resolveLink(p pathops.Path) (node.NodeLink, error) {
	return m.resolveLinkFrom(m.Entry, p)
}

// resolveLinkFrom is resolveLink starting from an arbitrary root node,
// used by Mv to probe an uncommitted edit's tree.
func (m *Mount) resolveLinkFrom(root *node.Node, p pathops.Path) (node.NodeLink, error) {
	current := root
	for i, name := range p {
		nl, ok := current.GetLink(name)
		if !ok {
			return node.NodeLink{}, ErrPathNotFound
		}
		if i == len(p)-1 {
			return nl, nil
		}
		if !nl.IsDir() {
			return node.NodeLink{}, ErrPathNotNode
		}
		child, err := loadEncryptedNode(m.blobs, m.codec, nl.Link, nl.Secret)
		if err != nil {
			return node.NodeLink{}, err
		}
		current = child
	}
	return node.NodeLink{}, ErrPathNotFound
}
