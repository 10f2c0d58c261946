package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/anvil/internal/libvirt"
)

var testConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test libvirt connection",
	Long: `Test connectivity to the libvirt daemon used for pool:volume references
and the in-use check, and show which running domains have disks attached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Testing libvirt connection at %s...\n", cfg.Libvirt.Socket)

		client, err := libvirt.ConnectWithContext(cmd.Context(), cfg.Libvirt.Socket, cfg.Libvirt.Timeout)
		if err != nil {
			return fmt.Errorf("failed to connect to libvirt: %w", err)
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
			}
		}()

		fmt.Fprintln(out, "✓ Connected to libvirt daemon")

		if err := client.Ping(); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		version, err := client.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Libvirt version: %s\n", version)

		domains, err := client.ActiveDiskSources()
		if err != nil {
			return fmt.Errorf("failed to list running domains: %w", err)
		}
		fmt.Fprintf(out, "✓ Running domains: %d\n", len(domains))

		fmt.Fprintln(out, "\nConnection test successful!")
		return nil
	},
}
