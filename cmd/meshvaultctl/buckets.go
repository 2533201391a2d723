package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var bucketsRootCmd = &cobra.Command{Use: "bucket", Short: "Bucket lifecycle"}

var bucketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List buckets tracked by this peer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, id := range ctl.ListBuckets() {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var bucketCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new bucket owned by this peer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ctl.CreateBucket(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	bucketsRootCmd.AddCommand(bucketListCmd, bucketCreateCmd)
}

func parseBucketID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("meshvaultctl: invalid bucket id %q: %w", s, err)
	}
	return id, nil
}
