package syncjobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/ld"
	"github.com/meshvault/meshvault/manifest"
)

// fetchManifest returns the manifest at link, using the local blob
// store if already present and otherwise downloading it from peerIDs
// in priority order, since manifests are ordinary content-addressed
// blobs.
func fetchManifest(ctx context.Context, deps Deps, peerIDs []keys.PublicKey, link ld.Link) (*manifest.Manifest, error) {
	if !deps.Blobs.Stat(link.Hash) {
		if err := blob.DownloadHash(ctx, deps.Blobs, link.Hash, peerIDs, deps.fetcher()); err != nil {
			return nil, fmt.Errorf("syncjobs: downloading manifest %s: %w", link.Hash, err)
		}
	}
	data, err := deps.Blobs.Get(link.Hash)
	if err != nil {
		return nil, fmt.Errorf("syncjobs: reading manifest %s: %w", link.Hash, err)
	}
	m, err := manifest.Decode(deps.Codec, data)
	if err != nil {
		return nil, fmt.Errorf("syncjobs: decoding manifest %s: %w", link.Hash, err)
	}
	return m, nil
}

// findCommonAncestor walks backwards from startLink, downloading each
// manifest in turn, until it finds a link our own log already knows
// about, or runs off the front of the chain at genesis without a
// match.
func findCommonAncestor(ctx context.Context, deps Deps, bucketID uuid.UUID, peerIDs []keys.PublicKey, startLink ld.Link) (link ld.Link, height uint64, found bool, err error) {
	visited := make(map[ld.Hash]bool)
	current := startLink
	for {
		if visited[current.Hash] {
			return ld.Link{}, 0, false, ErrCyclicChain
		}
		visited[current.Hash] = true

		if heights, herr := deps.Logs.Has(bucketID, current); herr == nil && len(heights) > 0 {
			return current, heights[0], true, nil
		}

		m, ferr := fetchManifest(ctx, deps, peerIDs, current)
		if ferr != nil {
			return ld.Link{}, 0, false, ferr
		}
		if m.Previous == nil {
			return ld.Link{}, 0, false, nil
		}
		current = *m.Previous
	}
}

// downloadManifestChain walks backwards from startLink, collecting
// every manifest until it reaches commonAncestor (exclusive) or a
// manifest with no Previous (genesis, inclusive), then reverses the
// result to oldest-first.
func downloadManifestChain(ctx context.Context, deps Deps, peerIDs []keys.PublicKey, startLink ld.Link, commonAncestor *ld.Link) ([]ld.Link, []*manifest.Manifest, error) {
	var links []ld.Link
	var manifests []*manifest.Manifest
	visited := make(map[ld.Hash]bool)
	current := startLink

	for {
		if visited[current.Hash] {
			return nil, nil, ErrCyclicChain
		}
		visited[current.Hash] = true

		if commonAncestor != nil && current.Equal(*commonAncestor) {
			break
		}

		m, err := fetchManifest(ctx, deps, peerIDs, current)
		if err != nil {
			return nil, nil, err
		}
		links = append(links, current)
		manifests = append(manifests, m)

		if m.Previous == nil {
			break
		}
		current = *m.Previous
	}

	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
		manifests[i], manifests[j] = manifests[j], manifests[i]
	}
	return links, manifests, nil
}
