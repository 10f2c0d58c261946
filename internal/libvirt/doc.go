// Package libvirt provides a small client wrapper around libvirt for the
// parts of anvil that need to know about the host's virtual machines.
//
// This package wraps github.com/digitalocean/go-libvirt to provide:
//   - Connection management (connect, disconnect, ping)
//   - Storage volume path lookup for pool:volume image references
//   - Disk sources of running domains, parsed with libvirtxml
//
// Connection Management:
//
// The package connects to the local libvirt daemon via Unix socket:
//
//	client, err := libvirt.Connect("", 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Consumers:
//
// internal/image resolves pool:volume references with Client.VolumePath and
// refuses images attached to running domains using Client.ActiveDiskSources.
// Both consumers declare their own narrow interfaces, so tests never need a
// libvirt daemon.
package libvirt
