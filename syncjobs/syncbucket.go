package syncjobs

import (
	"context"
	"fmt"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/ld"
)

// doSyncBucket finds a common ancestor (if we already track this
// bucket), downloads the manifest chain back to it, verifies
// provenance on the newest manifest, applies the chain to the bucket
// log, and dispatches a DownloadPinsJob for the new head.
func doSyncBucket(ctx context.Context, d *Dispatcher, job SyncBucketJob) error {
	deps := d.deps

	var commonAncestor *ld.Link
	if deps.Logs.Exists(job.BucketID) {
		anc, _, found, err := findCommonAncestor(ctx, deps, job.BucketID, job.Target.PeerIDs, job.Target.Link)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: bucket %s", ErrChainDiverged, job.BucketID)
		}
		commonAncestor = &anc
	}

	links, manifests, err := downloadManifestChain(ctx, deps, job.Target.PeerIDs, job.Target.Link, commonAncestor)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	newest := manifests[len(manifests)-1]
	if _, ok := newest.ShareFor(deps.Self.Public()); !ok {
		return fmt.Errorf("%w: bucket %s", ErrProvenanceRejected, job.BucketID)
	}

	for i, link := range links {
		m := manifests[i]
		if err := deps.Logs.Append(job.BucketID, m.Name, link, m.Previous, m.Height, m.Published); err != nil {
			return fmt.Errorf("syncjobs: applying manifest at height %d: %w", m.Height, err)
		}
	}

	d.Dispatch(DownloadPinsJob{
		BucketID: job.BucketID,
		PinsLink: newest.Pins,
		PeerIDs:  newest.SharePrincipals(),
	})
	return nil
}

// doDownloadPins downloads the newest generation's pins hash-list and
// every blob it names.
func doDownloadPins(ctx context.Context, deps Deps, job DownloadPinsJob) error {
	if err := blob.DownloadHashList(ctx, deps.Blobs, job.PinsLink.Hash, job.PeerIDs, deps.fetcher()); err != nil {
		return fmt.Errorf("syncjobs: downloading pins for bucket %s: %w", job.BucketID, err)
	}
	return nil
}
