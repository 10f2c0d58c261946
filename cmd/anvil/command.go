package main

import (
	"github.com/spf13/cobra"

	"github.com/jbweber/anvil/api/v1alpha1"
)

var (
	commandFlags sessionFlags
	commandShell string
	commandArgv  string
)

var commandCmd = &cobra.Command{
	Use:   "command <image> (--shell <script> | --command <cmd>)",
	Short: "Run a command inside a disk image",
	Long: `Run a command against the mounted guest filesystem.

--shell runs the script with the guest's /bin/sh. --command splits the
string on whitespace and executes it directly, without a shell.

The command always reports a change, since its effects cannot be known.

Example:
  anvil command fedora.qcow2 --shell 'cat /etc/os-release'
  anvil command default:fedora.qcow2 --command 'rpm -qa'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := v1alpha1.NewGuestTask("", args[0])
		task.Spec.Command = &v1alpha1.CommandSpec{Shell: commandShell, Command: commandArgv}
		return runFlagTask(cmd, &commandFlags, task)
	},
}

func init() {
	commandCmd.Flags().StringVar(&commandShell, "shell", "", "shell script to run with /bin/sh")
	commandCmd.Flags().StringVar(&commandArgv, "command", "", "command to run without a shell")
	commandCmd.MarkFlagsMutuallyExclusive("shell", "command")
	commandCmd.MarkFlagsOneRequired("shell", "command")
	addSessionFlags(commandCmd, &commandFlags)
}
