// Package node implements the encrypted directory tree node: a map
// from name to NodeLink, CBOR-encoded then encrypted as a raw blob.
// Each directory level — and each data payload — carries its own
// Secret, carried alongside the Link rather than with the blob.
package node

import (
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/secret"
)

// Kind distinguishes the two NodeLink variants.
type Kind uint8

const (
	KindDir Kind = iota
	KindData
)

// DataInfo carries metadata about a data blob beyond its bytes.
type DataInfo struct {
	Mime *string `cbor:"mime,omitempty"`
}

// NodeLink is a directory-entry value: either a pointer to another
// encrypted Node (a subdirectory) or to an encrypted data blob.
type NodeLink struct {
	Kind     Kind          `cbor:"kind"`
	Link     ld.Link       `cbor:"link"`
	Secret   secret.Secret `cbor:"secret"`
	DataInfo *DataInfo     `cbor:"data_info,omitempty"`
}

// NewDirLink builds a NodeLink pointing at an encrypted subdirectory.
func NewDirLink(link ld.Link, s secret.Secret) NodeLink {
	return NodeLink{Kind: KindDir, Link: link, Secret: s}
}

// NewDataLink builds a NodeLink pointing at an encrypted data blob.
func NewDataLink(link ld.Link, s secret.Secret, info DataInfo) NodeLink {
	return NodeLink{Kind: KindData, Link: link, Secret: s, DataInfo: &info}
}

// NewDataLinkFromPath builds a data NodeLink, inferring the mime type
// from the file extension in name.
func NewDataLinkFromPath(link ld.Link, s secret.Secret, name string) NodeLink {
	info := DataInfo{Mime: MimeFromPath(name)}
	return NewDataLink(link, s, info)
}

// MimeFromPath infers a mime type from a path's extension (e.g.
// "application/json" for ".json"), returning nil when the extension is
// unrecognized.
func MimeFromPath(p string) *string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return nil
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// mime.TypeByExtension may append a charset parameter
		// ("text/plain; charset=utf-8"); keep only the bare media
		// type.
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return &t
	}
	if t, ok := extraMimeTypes[ext]; ok {
		return &t
	}
	return nil
}

// extraMimeTypes covers extensions mime.TypeByExtension does not know
// about on every platform (notably .json, which is registered on some
// systems' mime.types and not others).
var extraMimeTypes = map[string]string{
	".json": "application/json",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".bin":  "application/octet-stream",
	".cbor": "application/cbor",
}

// IsDir reports whether the link points at a directory.
func (nl NodeLink) IsDir() bool { return nl.Kind == KindDir }

// IsData reports whether the link points at a data blob.
func (nl NodeLink) IsData() bool { return nl.Kind == KindData }

// Node is a directory: a set of named NodeLinks. There is no ordering
// requirement on children.
type Node struct {
	Children map[string]NodeLink `cbor:"children"`
}

// New returns an empty Node, as used by Mount.init.
func New() *Node {
	return &Node{Children: make(map[string]NodeLink)}
}

// Insert sets name to point at link, replacing any existing entry.
func (n *Node) Insert(name string, link NodeLink) {
	if n.Children == nil {
		n.Children = make(map[string]NodeLink)
	}
	n.Children[name] = link
}

// Del removes name, returning the removed link if present.
func (n *Node) Del(name string) (NodeLink, bool) {
	nl, ok := n.Children[name]
	if ok {
		delete(n.Children, name)
	}
	return nl, ok
}

// GetLink returns the NodeLink for name, if present.
func (n *Node) GetLink(name string) (NodeLink, bool) {
	nl, ok := n.Children[name]
	return nl, ok
}

// Names returns the sorted list of child names, for deterministic
// iteration (CBOR map key order is canonicalized separately at encode
// time by ld.CBORCodec; this is for human-facing listing).
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of n, so a node read off a shared
// ancestor chain can be mutated without affecting the original.
func (n *Node) Clone() *Node {
	out := New()
	for name, link := range n.Children {
		out.Children[name] = link
	}
	return out
}

// Encode CBOR-encodes n using codec. The returned bytes are the
// plaintext that Mount encrypts before storing as a blob — the content
// link callers address is over the *ciphertext*, not these bytes, so
// this only returns the plaintext encoding.
func (n *Node) Encode(codec ld.CBORCodec) ([]byte, error) {
	return codec.Marshal(n)
}

// Decode parses node bytes using codec.
func Decode(codec ld.CBORCodec, data []byte) (*Node, error) {
	var n Node
	if err := codec.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	if n.Children == nil {
		n.Children = make(map[string]NodeLink)
	}
	return &n, nil
}
