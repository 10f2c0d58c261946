package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/anvil/internal/config"
	"github.com/jbweber/anvil/internal/output"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	cfgFile      string
	debug        bool
	outputFormat string
	noHeaders    bool

	cfg *config.Config
)

// errReported is returned after a failed report has been printed, so main
// exits non-zero without printing the error a second time.
var errReported = errors.New("operation failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "anvil",
	Short: "Anvil - offline disk image automation",
	Long: `Anvil modifies virtual machine disk images without booting them.

Each command attaches one image to a libguestfs appliance, mounts the guest
filesystems, performs a single operation (run a command, copy files out,
manage packages or users) and writes the changes back before exiting.

Images are given as a host path or as a libvirt pool:volume reference.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(os.Stderr, debug)

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if outputFormat != "" {
			if err := output.ValidateFormat(outputFormat); err != nil {
				return err
			}
			loaded.Output = outputFormat
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.anvil/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, yaml or json (default from config)")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "omit headers in table output")

	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(copyOutCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(testConnCmd)
}
