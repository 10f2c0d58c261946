package libvirt

import (
	"fmt"

	"github.com/digitalocean/go-libvirt"
	"libvirt.org/go/libvirtxml"
)

// DiskSources returns the disk sources of a domain XML document.
// File and block sources are returned as host paths, volume sources as
// "pool:volume".
func DiskSources(domainXML string) ([]string, error) {
	var domain libvirtxml.Domain
	if err := domain.Unmarshal(domainXML); err != nil {
		return nil, fmt.Errorf("failed to parse domain XML: %w", err)
	}
	if domain.Devices == nil {
		return nil, nil
	}

	var sources []string
	for _, disk := range domain.Devices.Disks {
		src := disk.Source
		if src == nil {
			continue
		}
		switch {
		case src.File != nil && src.File.File != "":
			sources = append(sources, src.File.File)
		case src.Block != nil && src.Block.Dev != "":
			sources = append(sources, src.Block.Dev)
		case src.Volume != nil && src.Volume.Volume != "":
			sources = append(sources, src.Volume.Pool+":"+src.Volume.Volume)
		}
	}
	return sources, nil
}

// ActiveDiskSources returns the disk sources of every running domain,
// keyed by domain name.
func (c *Client) ActiveDiskSources() (map[string][]string, error) {
	if c.api == nil {
		return nil, fmt.Errorf("client not connected")
	}

	domains, _, err := c.api.ConnectListAllDomains(1, libvirt.ConnectListDomainsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active domains: %w", err)
	}

	out := make(map[string][]string, len(domains))
	for _, dom := range domains {
		xml, err := c.api.DomainGetXMLDesc(dom, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to get XML for domain %s: %w", dom.Name, err)
		}
		sources, err := DiskSources(xml)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", dom.Name, err)
		}
		out[dom.Name] = sources
	}
	return out, nil
}
