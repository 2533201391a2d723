package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/transport/quictransport"
	"github.com/meshvault/meshvault/wire"
)

var peerRootCmd = &cobra.Command{Use: "peer", Short: "Peer addressing, pinging and serving"}

var peerAddrCmd = &cobra.Command{
	Use:   "addr <peer-pubkey-hex> <host:port>",
	Short: "Record a peer's dialable address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := keys.PublicKeyFromHex(args[0])
		if err != nil {
			return fmt.Errorf("meshvaultctl: invalid peer key: %w", err)
		}
		book.Set(pk, args[1])
		return nil
	},
}

var peerPingCmd = &cobra.Command{
	Use:   "ping <bucket> <peer-pubkey-hex>",
	Short: "Advertise a bucket's head to a peer and report its reply",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		pk, err := keys.PublicKeyFromHex(args[1])
		if err != nil {
			return fmt.Errorf("meshvaultctl: invalid peer key: %w", err)
		}
		reply, err := ctl.PingPeer(cmd.Context(), id, pk)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "status=%s height=%d\n", pingStatusString(reply.Status), reply.Height)
		if reply.Link != nil {
			fmt.Fprintln(cmd.OutOrStdout(), reply.Link)
		}
		return nil
	},
}

var peerServeCmd = &cobra.Command{
	Use:   "serve <listen-addr>",
	Short: "Accept inbound connections and answer ping/fetch-blob requests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args[0])
	},
}

// pingStatusString renders a PingReplyStatus for human-readable CLI
// output.
func pingStatusString(s wire.PingReplyStatus) string {
	switch s {
	case wire.PingStatusNotFound:
		return "not_found"
	case wire.PingStatusInSync:
		return "in_sync"
	case wire.PingStatusBehind:
		return "behind"
	case wire.PingStatusAhead:
		return "ahead"
	default:
		return "unknown"
	}
}

func runServe(cmd *cobra.Command, addr string) error {
	t, ok := ctl.Dialer.(*quictransport.Transport)
	if !ok {
		return fmt.Errorf("meshvaultctl: serve: transport does not support listening")
	}
	if err := t.Listen(addr); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", t.Addr())

	ctx, cancel := context.WithCancel(cmd.Context())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	err := wire.Serve(ctx, t, ctl.Codec, sk, ctl, ctl.Logger)
	_ = t.Close()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func init() {
	peerRootCmd.AddCommand(peerAddrCmd, peerPingCmd, peerServeCmd)
}
