package main

import (
	"github.com/spf13/cobra"

	"github.com/jbweber/anvil/api/v1alpha1"
)

var (
	copyOutFlags     sessionFlags
	copyOutRecursive bool
)

var copyOutCmd = &cobra.Command{
	Use:   "copy-out <image> <src> <dest>",
	Short: "Copy files from a disk image to the host",
	Long: `Copy a file or directory out of the guest.

A single file is only downloaded when the host copy is missing or its
checksum differs (defaults.checksum in the config, md5 by default). A
dest ending in / receives the file under its guest base name.

--recursive copies a whole directory into dest and always reports a change.

Example:
  anvil copy-out fedora.qcow2 /etc/hosts ./hosts
  anvil copy-out fedora.qcow2 /etc/yum.repos.d /backup --recursive`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := v1alpha1.NewGuestTask("", args[0])
		task.Spec.CopyOut = &v1alpha1.CopyOutSpec{Src: args[1], Dest: args[2], Recursive: copyOutRecursive}
		return runFlagTask(cmd, &copyOutFlags, task)
	},
}

func init() {
	copyOutCmd.Flags().BoolVarP(&copyOutRecursive, "recursive", "r", false, "copy a directory tree")
	addSessionFlags(copyOutCmd, &copyOutFlags)
}
