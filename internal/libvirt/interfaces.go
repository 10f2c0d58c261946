package libvirt

import "github.com/digitalocean/go-libvirt"

// libvirtAPI is the subset of *libvirt.Libvirt that Client uses.
type libvirtAPI interface {
	Disconnect() error
	ConnectGetLibVersion() (uint64, error)
	ConnectListAllDomains(NeedResults int32, Flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error)
	DomainGetXMLDesc(Dom libvirt.Domain, Flags libvirt.DomainXMLFlags) (string, error)
	StoragePoolLookupByName(Name string) (libvirt.StoragePool, error)
	StorageVolLookupByName(Pool libvirt.StoragePool, Name string) (libvirt.StorageVol, error)
	StorageVolGetPath(Vol libvirt.StorageVol) (string, error)
}
