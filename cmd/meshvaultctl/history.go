package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meshvault/meshvault/ld"
)

var historyRootCmd = &cobra.Command{Use: "history", Short: "Inspect and browse past bucket generations"}

var historyGetCmd = &cobra.Command{
	Use:   "get <bucket> [page]",
	Short: "List generations of a bucket, newest first",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		page := 0
		if len(args) == 2 {
			page, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("meshvaultctl: invalid page %q: %w", args[1], err)
			}
		}
		entries, err := ctl.GetHistory(id, page)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tpublished=%v\n", e.Height, e.Link, e.Published)
		}
		return nil
	},
}

var historyLsCmd = &cobra.Command{
	Use:   "ls-at <link> <path>",
	Short: "List a directory as of a past generation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := ld.ParseLink(args[0])
		if err != nil {
			return err
		}
		names, err := ctl.LsAtVersion(link, args[1])
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var historyCatCmd = &cobra.Command{
	Use:   "cat-at <link> <path>",
	Short: "Print a file's contents as of a past generation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := ld.ParseLink(args[0])
		if err != nil {
			return err
		}
		data, err := ctl.CatAtVersion(link, args[1])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	historyRootCmd.AddCommand(historyGetCmd, historyLsCmd, historyCatCmd)
}
