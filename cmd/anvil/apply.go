package main

import (
	"github.com/spf13/cobra"

	"github.com/jbweber/anvil/internal/loader"
)

var applyForce bool

var applyCmd = &cobra.Command{
	Use:   "apply <task.yaml>",
	Short: "Run a GuestTask file against a disk image",
	Long: `Run the single operation described by a GuestTask YAML file.

Example task:

  apiVersion: anvil.cofront.xyz/v1alpha1
  kind: GuestTask
  metadata:
    name: install-tools
  spec:
    image: default:fedora-40.qcow2
    mounts:
      - /dev/sda2: /
    package:
      names: [vim, nc]

Fields left out of the task take their values from the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := loader.LoadFromFile(args[0])
		if err != nil {
			return reportFailure(cmd.OutOrStdout(), "", args[0], err)
		}
		task.Spec.Force = task.Spec.Force || applyForce
		return runTask(cmd.Context(), cmd.OutOrStdout(), task)
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyForce, "force", false, "modify the image even if a running domain has it attached")
}
