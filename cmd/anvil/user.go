package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jbweber/anvil/api/v1alpha1"
	"github.com/jbweber/anvil/internal/errdefs"
)

var (
	userFlags          sessionFlags
	userState          string
	userPassword       string
	userPasswordFile   string
	userAuthorizedKeys []string
)

var userCmd = &cobra.Command{
	Use:   "user <image> <name>",
	Short: "Create, update or remove a user in a disk image",
	Long: `Manage a local account in the guest.

--state present creates the user if needed and always sets the password.
When neither --password nor --password-file is given the password is read
from the terminal. --authorized-key appends public keys to the user's
~/.ssh/authorized_keys, skipping keys that are already there.

--state absent removes the account with userdel. The home directory is
left in place.

Example:
  anvil user fedora.qcow2 alice --password-file ./alice.pw
  anvil user fedora.qcow2 alice --authorized-key "$(cat ~/.ssh/id_ed25519.pub)"
  anvil user fedora.qcow2 bob --state absent`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := v1alpha1.NewGuestTask("", args[0])
		task.Spec.User = &v1alpha1.UserSpec{
			Name:           args[1],
			State:          userState,
			Password:       userPassword,
			PasswordFile:   userPasswordFile,
			AuthorizedKeys: userAuthorizedKeys,
		}

		if task.UserState() == "present" && userPassword == "" && userPasswordFile == "" {
			password, err := promptPassword(os.Stdin, cmd.ErrOrStderr(), args[1])
			if err != nil {
				return reportFailure(cmd.OutOrStdout(), args[0], "", err)
			}
			task.Spec.User.Password = password
		}
		return runFlagTask(cmd, &userFlags, task)
	},
}

func init() {
	userCmd.Flags().StringVar(&userState, "state", "present", "desired state: present or absent")
	userCmd.Flags().StringVar(&userPassword, "password", "", "password to set (visible in the process list, prefer --password-file)")
	userCmd.Flags().StringVar(&userPasswordFile, "password-file", "", "read the password from the first line of a file")
	userCmd.Flags().StringArrayVar(&userAuthorizedKeys, "authorized-key", nil, "SSH public key to authorize (repeatable)")
	userCmd.MarkFlagsMutuallyExclusive("password", "password-file")
	addSessionFlags(userCmd, &userFlags)
}

// promptPassword reads a password from in without echo. in must be a
// terminal.
func promptPassword(in *os.File, prompt io.Writer, name string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: --password or --password-file is required when stdin is not a terminal", errdefs.ErrConfiguration)
	}

	fmt.Fprintf(prompt, "Password for %s: ", name)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read password: %v", errdefs.ErrConfiguration, err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("%w: password cannot be empty", errdefs.ErrConfiguration)
	}
	return string(b), nil
}
