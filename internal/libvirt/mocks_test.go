package libvirt

import (
	"fmt"

	"github.com/digitalocean/go-libvirt"
)

// mockLibvirtAPI is a mock implementation of the libvirtAPI interface for testing.
type mockLibvirtAPI struct {
	// Configurable behavior
	domains   []libvirt.Domain
	domainXML map[string]string
	volumes   map[string]map[string]string
	listErr   error
	versionFn func() (uint64, error)

	// Call tracking
	disconnectCalls int
	listFlags       []libvirt.ConnectListAllDomainsFlags
}

func newMockLibvirtAPI() *mockLibvirtAPI {
	return &mockLibvirtAPI{
		domainXML: map[string]string{},
		volumes:   map[string]map[string]string{},
		versionFn: func() (uint64, error) { return 10000000, nil },
	}
}

func (m *mockLibvirtAPI) Disconnect() error {
	m.disconnectCalls++
	return nil
}

func (m *mockLibvirtAPI) ConnectGetLibVersion() (uint64, error) {
	return m.versionFn()
}

func (m *mockLibvirtAPI) ConnectListAllDomains(NeedResults int32, Flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error) {
	m.listFlags = append(m.listFlags, Flags)
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.domains, uint32(len(m.domains)), nil
}

func (m *mockLibvirtAPI) DomainGetXMLDesc(Dom libvirt.Domain, Flags libvirt.DomainXMLFlags) (string, error) {
	xml, ok := m.domainXML[Dom.Name]
	if !ok {
		return "", fmt.Errorf("domain not found: %s", Dom.Name)
	}
	return xml, nil
}

func (m *mockLibvirtAPI) StoragePoolLookupByName(Name string) (libvirt.StoragePool, error) {
	if _, ok := m.volumes[Name]; !ok {
		return libvirt.StoragePool{}, fmt.Errorf("storage pool not found: %s", Name)
	}
	return libvirt.StoragePool{Name: Name}, nil
}

func (m *mockLibvirtAPI) StorageVolLookupByName(Pool libvirt.StoragePool, Name string) (libvirt.StorageVol, error) {
	if _, ok := m.volumes[Pool.Name][Name]; !ok {
		return libvirt.StorageVol{}, fmt.Errorf("storage volume not found: %s", Name)
	}
	return libvirt.StorageVol{Pool: Pool.Name, Name: Name}, nil
}

func (m *mockLibvirtAPI) StorageVolGetPath(Vol libvirt.StorageVol) (string, error) {
	return m.volumes[Vol.Pool][Vol.Name], nil
}
