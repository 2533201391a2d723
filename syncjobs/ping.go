package syncjobs

import (
	"context"
	"fmt"

	"github.com/meshvault/meshvault/wire"
)

// doPing advertises job's bucket head to job.PeerID and logs the
// recipient's reply. The recipient itself is responsible for deciding
// whether to dispatch a SyncBucketJob in response — that happens in
// its own wire.Handler.HandlePing, not here.
func doPing(ctx context.Context, deps Deps, job PingJob) error {
	reply, err := wire.Ping(ctx, deps.Dialer, deps.Codec, deps.Self, job.PeerID, wire.PingRequest{
		BucketID: job.BucketID,
		Link:     job.Link,
		Height:   job.Height,
	})
	if err != nil {
		return fmt.Errorf("syncjobs: ping %s: %w", job.PeerID, err)
	}
	deps.logger().Debugw("syncjobs: ping replied",
		"bucket", job.BucketID, "peer", job.PeerID, "status", reply.Status, "their_height", reply.Height)
	return nil
}
