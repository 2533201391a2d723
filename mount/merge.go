package mount

import (
	"sort"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/node"
	"github.com/meshvault/meshvault/pathops"
	"github.com/meshvault/meshvault/pins"
	"github.com/meshvault/meshvault/secret"
)

// mergeDir is a plain in-memory directory built while replaying a
// merged ops log's winners — unlike node.Node, its subdirectories are
// not yet encrypted or stored, so a child can be filled in before its
// own NodeLink (which requires a Secret and a stored blob) exists.
type mergeDir struct {
	children map[string]*mergeChild
}

type mergeChild struct {
	dir  *mergeDir      // set when this child is a directory
	leaf *node.NodeLink // set when this child is a file, copied from whichever Mount produced it
}

func newMergeDir() *mergeDir {
	return &mergeDir{children: make(map[string]*mergeChild)}
}

// ensureMergeDir walks (creating as needed) the directory chain named
// by p, returning the mergeDir at that path.
func ensureMergeDir(root *mergeDir, p pathops.Path) *mergeDir {
	current := root
	for _, name := range p {
		child, ok := current.children[name]
		if !ok || child.dir == nil {
			child = &mergeChild{dir: newMergeDir()}
			current.children[name] = child
		}
		current = child.dir
	}
	return current
}

// MergeFrom reconciles incoming's path-operation log into m's, then
// deterministically rebuilds m's entry tree from the merged log's
// winners, replayed in OpId order. Every re-materialized directory is
// stored under a fresh Secret and pinned; file entries
// keep the Secret and Link they were originally written with, found by
// walking whichever Mount (self or incoming) actually produced the
// winning write.
//
// MergeFrom does not call Save; the caller is expected to save the
// resulting Mount to publish a new manifest generation.
func (m *Mount) MergeFrom(incoming *Mount, resolver pathops.ConflictResolver) (pathops.MergeResult, error) {
	result := m.OpsLog.MergeWithResolver(incoming.OpsLog, resolver)

	winners := m.OpsLog.ResolveAll()
	ordered := make([]pathops.PathOperation, 0, len(winners))
	for _, op := range winners {
		ordered = append(ordered, op)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID.Less(ordered[j].ID) })

	root := newMergeDir()
	for _, op := range ordered {
		if op.Path.IsRoot() {
			continue
		}
		if op.IsDir {
			ensureMergeDir(root, op.Path)
			continue
		}

		nl, found, err := lookupNodeLink(m, op.Path)
		if err != nil {
			return pathops.MergeResult{}, err
		}
		if !found {
			nl, found, err = lookupNodeLink(incoming, op.Path)
			if err != nil {
				return pathops.MergeResult{}, err
			}
		}
		if !found && op.OpType == pathops.OpMv {
			// A move neither side has materialized yet: the content is
			// still reachable at the source path.
			for _, mnt := range []*Mount{m, incoming} {
				nl, found, err = lookupNodeLink(mnt, op.From)
				if err != nil {
					return pathops.MergeResult{}, err
				}
				if found {
					break
				}
			}
		}
		if !found && op.ContentLink != nil {
			// A forked op's renamed path exists in neither tree, but
			// the write it preserves does — under its original name.
			// Find the entry by its content link instead.
			for _, mnt := range []*Mount{m, incoming} {
				nl, found, err = findNodeLinkByContent(mnt, mnt.Entry, *op.ContentLink)
				if err != nil {
					return pathops.MergeResult{}, err
				}
				if found {
					break
				}
			}
		}
		if !found {
			// The winning write's content is not reachable from either
			// tree (e.g. a peer synced only the ops log, not the blob
			// chain behind it). Skip it; a later pins download can
			// still bring the blob in without this op being lost, since
			// it remains in the log for the next merge.
			continue
		}

		parent := ensureMergeDir(root, op.Path.Parent())
		leaf := nl
		parent.children[op.Path.Base()] = &mergeChild{leaf: &leaf}
	}

	newEntry, err := buildTree(m.blobs, m.codec, m.Pins, root)
	if err != nil {
		return pathops.MergeResult{}, err
	}

	for _, h := range incoming.Pins.Hashes() {
		m.Pins.Add(h)
	}

	m.Entry = newEntry
	return result, nil
}

// lookupNodeLink reads (without creating) the NodeLink at p in mnt's
// current entry tree.
func lookupNodeLink(mnt *Mount, p pathops.Path) (node.NodeLink, bool, error) {
	current := mnt.Entry
	for i, name := range p {
		nl, ok := current.GetLink(name)
		if !ok {
			return node.NodeLink{}, false, nil
		}
		if i == len(p)-1 {
			return nl, true, nil
		}
		if !nl.IsDir() {
			return node.NodeLink{}, false, nil
		}
		child, err := loadEncryptedNode(mnt.blobs, mnt.codec, nl.Link, nl.Secret)
		if err != nil {
			return node.NodeLink{}, false, err
		}
		current = child
	}
	return node.NodeLink{}, false, nil
}

// findNodeLinkByContent searches mnt's tree depth-first (from n) for a
// data entry whose content link equals want.
func findNodeLinkByContent(mnt *Mount, n *node.Node, want ld.Link) (node.NodeLink, bool, error) {
	for _, name := range n.Names() {
		nl, _ := n.GetLink(name)
		if nl.IsData() {
			if nl.Link.Equal(want) {
				return nl, true, nil
			}
			continue
		}
		child, err := loadEncryptedNode(mnt.blobs, mnt.codec, nl.Link, nl.Secret)
		if err != nil {
			return node.NodeLink{}, false, err
		}
		found, ok, err := findNodeLinkByContent(mnt, child, want)
		if err != nil || ok {
			return found, ok, err
		}
	}
	return node.NodeLink{}, false, nil
}

// buildTree materializes d into a stored node.Node tree: every
// subdirectory is recursively stored under a fresh Secret and pinned;
// the returned root Node itself is left unstored for the caller (Save)
// to encrypt.
func buildTree(blobs blob.Store, codec ld.CBORCodec, p *pins.Pins, d *mergeDir) (*node.Node, error) {
	n := node.New()
	for name, child := range d.children {
		if child.leaf != nil {
			n.Insert(name, *child.leaf)
			continue
		}
		childNode, err := buildTree(blobs, codec, p, child.dir)
		if err != nil {
			return nil, err
		}
		s, err := secret.Generate()
		if err != nil {
			return nil, err
		}
		link, err := storeEncryptedNode(blobs, codec, childNode, s)
		if err != nil {
			return nil, err
		}
		p.AddLink(link)
		n.Insert(name, node.NewDirLink(link, s))
	}
	return n, nil
}
