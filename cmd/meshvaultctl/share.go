package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshvault/meshvault/keys"
	"github.com/meshvault/meshvault/manifest"
)

var shareRootCmd = &cobra.Command{Use: "share", Short: "Sharing and publication"}

var shareGrantCmd = &cobra.Command{
	Use:   "grant <bucket> <peer-pubkey-hex> <owner|mirror>",
	Short: "Grant a peer a role over a bucket",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		pk, err := keys.PublicKeyFromHex(args[1])
		if err != nil {
			return fmt.Errorf("meshvaultctl: invalid peer key: %w", err)
		}
		role, err := parseRole(args[2])
		if err != nil {
			return err
		}
		return ctl.ShareBucket(id, pk, role)
	},
}

var sharePublishCmd = &cobra.Command{
	Use:   "publish <bucket>",
	Short: "Mark a bucket published",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		return ctl.PublishBucket(id)
	},
}

func parseRole(s string) (manifest.Role, error) {
	switch s {
	case "owner":
		return manifest.RoleOwner, nil
	case "mirror":
		return manifest.RoleMirror, nil
	default:
		return "", fmt.Errorf("meshvaultctl: unknown role %q (want owner or mirror)", s)
	}
}

func init() {
	shareRootCmd.AddCommand(shareGrantCmd, sharePublishCmd)
}
