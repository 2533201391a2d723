package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fsRootCmd = &cobra.Command{Use: "fs", Short: "Filesystem operations on a bucket's current head"}

var fsLsCmd = &cobra.Command{
	Use:   "ls <bucket> <path>",
	Short: "List a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		names, err := ctl.Ls(id, args[1])
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var fsCatCmd = &cobra.Command{
	Use:   "cat <bucket> <path>",
	Short: "Print a file's decrypted contents to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		data, err := ctl.Cat(id, args[1])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var fsAddCmd = &cobra.Command{
	Use:   "add <bucket> <path> <local-file>",
	Short: "Write a local file's contents at path",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("meshvaultctl: reading %s: %w", args[2], err)
		}
		return ctl.Add(id, args[1], data)
	},
}

var fsMkdirCmd = &cobra.Command{
	Use:   "mkdir <bucket> <path>",
	Short: "Create an empty directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		return ctl.Mkdir(id, args[1])
	},
}

var fsRmCmd = &cobra.Command{
	Use:   "rm <bucket> <path>",
	Short: "Remove a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		return ctl.Rm(id, args[1])
	},
}

var fsMvCmd = &cobra.Command{
	Use:   "mv <bucket> <from> <to>",
	Short: "Move or rename a path",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBucketID(args[0])
		if err != nil {
			return err
		}
		return ctl.Mv(id, args[1], args[2])
	},
}

func init() {
	fsRootCmd.AddCommand(fsLsCmd, fsCatCmd, fsAddCmd, fsMkdirCmd, fsRmCmd, fsMvCmd)
}
