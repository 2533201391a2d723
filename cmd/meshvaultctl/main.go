// Command meshvaultctl is the reference command-line client for a
// meshvault peer: bucket lifecycle, filesystem operations, sharing and
// sync, all driven through the peer package's facade.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshvault/meshvault/blob"
	"github.com/meshvault/meshvault/bucketlog"
	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/peer"
	"github.com/meshvault/meshvault/syncjobs"
	"github.com/meshvault/meshvault/transport/quictransport"
)

var (
	ctl      *peer.Peer
	ctlMu    sync.RWMutex
	homeDir  string
	logsPath string
	sk       keys.SecretKey
	book     *quictransport.StaticAddressBook
)

func logsFile() string { return filepath.Join(homeDir, "bucketlog.cbor") }
func keyFile() string  { return filepath.Join(homeDir, "identity.pem") }
func blobDir() string  { return filepath.Join(homeDir, "blobs") }

// ctlInit loads (or creates, on first run) a peer's on-disk identity,
// blob store, and bucket-log snapshot under --home.
func ctlInit(cmd *cobra.Command, _ []string) error {
	ctlMu.Lock()
	defer ctlMu.Unlock()
	if ctl != nil {
		return nil
	}

	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return fmt.Errorf("meshvaultctl: creating home %s: %w", homeDir, err)
	}

	var err error
	sk, err = loadOrCreateIdentity(keyFile())
	if err != nil {
		return err
	}

	blobs, err := blob.NewLocalStore(blobDir(), nil)
	if err != nil {
		return fmt.Errorf("meshvaultctl: opening blob store: %w", err)
	}

	logs, err := loadOrCreateLog(logsFile())
	if err != nil {
		return err
	}

	book = quictransport.NewStaticAddressBook()
	transport, err := quictransport.NewTransport(book, zap.NewNop().Sugar())
	if err != nil {
		return fmt.Errorf("meshvaultctl: building transport: %w", err)
	}

	dispatcher := syncjobs.NewDispatcher(syncjobs.Deps{
		Logs: logs, Blobs: blobs, Dialer: transport, Self: sk,
	}, 4, 64)
	dispatcher.Start(cmd.Context())

	ctl, err = peer.New(sk, logs, blobs, transport, dispatcher, nil)
	if err != nil {
		return fmt.Errorf("meshvaultctl: %w", err)
	}
	return nil
}

// ctlPersist writes the in-memory bucket log back to disk after any
// command that may have appended to it. Cheap enough to call
// unconditionally; MemLog's snapshot is just its recorded entries.
func ctlPersist(cmd *cobra.Command, _ []string) error {
	ctlMu.RLock()
	defer ctlMu.RUnlock()
	if ctl == nil {
		return nil
	}
	mem, ok := ctl.Logs.(*bucketlog.MemLog)
	if !ok {
		return nil
	}
	data, err := bucketlog.Dump(mem)
	if err != nil {
		return fmt.Errorf("meshvaultctl: snapshotting bucket log: %w", err)
	}
	if err := os.WriteFile(logsFile(), data, 0o600); err != nil {
		return fmt.Errorf("meshvaultctl: writing %s: %w", logsFile(), err)
	}
	return nil
}

func loadOrCreateIdentity(path string) (keys.SecretKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return keys.ParseSecretKeyPEM(data)
	}
	if !os.IsNotExist(err) {
		return keys.SecretKey{}, fmt.Errorf("meshvaultctl: reading identity: %w", err)
	}
	_, secret, err := keys.Generate()
	if err != nil {
		return keys.SecretKey{}, fmt.Errorf("meshvaultctl: generating identity: %w", err)
	}
	if err := os.WriteFile(path, secret.MarshalPEM(), 0o600); err != nil {
		return keys.SecretKey{}, fmt.Errorf("meshvaultctl: writing identity: %w", err)
	}
	return secret, nil
}

func loadOrCreateLog(path string) (*bucketlog.MemLog, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return bucketlog.Load(data)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("meshvaultctl: reading bucket log: %w", err)
	}
	return bucketlog.NewMemLog(), nil
}

// newRootCmd builds the command tree fresh; used by main and by tests
// that need a clean *cobra.Command without main's os.Exit side effect.
func newRootCmd() *cobra.Command {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	root := &cobra.Command{
		Use:               "meshvaultctl",
		Short:             "Inspect and drive a meshvault peer",
		PersistentPreRunE: ctlInit,
		// Some read-only commands still go through PersistentPostRunE;
		// re-dumping an unmodified log is a no-op beyond a rewritten file.
		PersistentPostRunE: ctlPersist,
		SilenceUsage:       true,
	}
	root.PersistentFlags().StringVar(&homeDir, "home", filepath.Join(home, ".meshvault"), "peer state directory")

	root.AddCommand(identityCmd)
	root.AddCommand(bucketsRootCmd)
	root.AddCommand(fsRootCmd)
	root.AddCommand(historyRootCmd)
	root.AddCommand(shareRootCmd)
	root.AddCommand(peerRootCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
