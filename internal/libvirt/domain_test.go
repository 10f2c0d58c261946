package libvirt

import (
	"errors"
	"testing"

	"github.com/digitalocean/go-libvirt"
)

const webDomainXML = `<domain type="kvm">
  <name>web</name>
  <devices>
    <disk type="file" device="disk">
      <driver name="qemu" type="qcow2"/>
      <source file="/var/lib/libvirt/images/web_boot.qcow2"/>
      <target dev="vda" bus="virtio"/>
    </disk>
    <disk type="block" device="disk">
      <source dev="/dev/vg0/web-data"/>
      <target dev="vdb" bus="virtio"/>
    </disk>
    <disk type="volume" device="cdrom">
      <source pool="default" volume="web_cloudinit.iso"/>
      <target dev="sda" bus="sata"/>
    </disk>
    <disk type="file" device="cdrom">
      <target dev="sdb" bus="sata"/>
    </disk>
  </devices>
</domain>`

func TestDiskSources(t *testing.T) {
	got, err := DiskSources(webDomainXML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"/var/lib/libvirt/images/web_boot.qcow2",
		"/dev/vg0/web-data",
		"default:web_cloudinit.iso",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiskSources_NoDevices(t *testing.T) {
	got, err := DiskSources(`<domain type="kvm"><name>empty</name></domain>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no sources, got %v", got)
	}
}

func TestDiskSources_InvalidXML(t *testing.T) {
	if _, err := DiskSources("<domain"); err == nil {
		t.Error("expected error for invalid XML")
	}
}

func TestActiveDiskSources(t *testing.T) {
	m := newMockLibvirtAPI()
	m.domains = []libvirt.Domain{{Name: "web"}}
	m.domainXML["web"] = webDomainXML
	c := &Client{api: m}

	got, err := c.ActiveDiskSources()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got["web"]) != 3 {
		t.Errorf("expected 3 sources for web, got %v", got["web"])
	}
	if len(m.listFlags) != 1 || m.listFlags[0] != libvirt.ConnectListDomainsActive {
		t.Errorf("expected active domains to be listed, flags %v", m.listFlags)
	}
}

func TestActiveDiskSources_Errors(t *testing.T) {
	m := newMockLibvirtAPI()
	m.listErr = errors.New("permission denied")
	if _, err := (&Client{api: m}).ActiveDiskSources(); err == nil {
		t.Error("expected list error")
	}

	m = newMockLibvirtAPI()
	m.domains = []libvirt.Domain{{Name: "ghost"}}
	if _, err := (&Client{api: m}).ActiveDiskSources(); err == nil {
		t.Error("expected XML lookup error")
	}
}
