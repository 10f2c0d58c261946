package main

import (
	"github.com/spf13/cobra"

	"github.com/jbweber/anvil/api/v1alpha1"
)

var (
	packageFlags sessionFlags
	packageNames []string
	packageState string
	packageList  string
)

var packageCmd = &cobra.Command{
	Use:   "package <image> (--name <pkg>... | --list <pattern>)",
	Short: "Install, remove or list packages in a disk image",
	Long: `Manage packages with the guest's own package manager (yum, dnf or apt).

--name installs (--state present) or removes (--state absent) packages.
Packages that are already in the requested state are reported unchanged.

--list matches installed applications against a regular expression anchored
at the start of the name; "*" lists everything.

Example:
  anvil package fedora.qcow2 --name vim --name nc
  anvil package debian.qcow2 --name telnet --state absent
  anvil package fedora.qcow2 --list 'kernel'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := v1alpha1.NewGuestTask("", args[0])
		task.Spec.Package = &v1alpha1.PackageSpec{Names: packageNames, List: packageList}
		if packageList == "" {
			task.Spec.Package.State = packageState
		}
		return runFlagTask(cmd, &packageFlags, task)
	},
}

func init() {
	packageCmd.Flags().StringSliceVarP(&packageNames, "name", "n", nil, "package name (repeatable or comma separated)")
	packageCmd.Flags().StringVar(&packageState, "state", "present", "desired state: present or absent")
	packageCmd.Flags().StringVar(&packageList, "list", "", "list installed packages matching a pattern")
	packageCmd.MarkFlagsMutuallyExclusive("name", "list")
	packageCmd.MarkFlagsMutuallyExclusive("state", "list")
	packageCmd.MarkFlagsOneRequired("name", "list")
	addSessionFlags(packageCmd, &packageFlags)
}
