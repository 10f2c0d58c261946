package session

import (
	"fmt"
	"strings"
)

// mockAppliance is a mock implementation of the Appliance interface for testing.
type mockAppliance struct {
	// Configurable behavior
	addDriveFunc           func(path string, opts DriveOptions) error
	setNetworkFunc         func(enabled bool) error
	launchFunc             func() error
	inspectRootsFunc       func() ([]string, error)
	inspectMountpointsFunc func(root string) (map[string]string, error)
	mountFunc              func(device, mountpoint string) error
	unmountAllFunc         func() error
	syncFunc               func() error
	shutdownFunc           func() error
	closeFunc              func() error
	existsFunc             func(path string) (bool, error)
	readLinesFunc          func(path string) ([]string, error)
	touchFunc              func(path string) error
	removeForceFunc        func(path string) error
	selinuxRelabelFunc     func(specFile, path string, force bool) error

	// Call tracking, in order
	calls []string
}

// newMockAppliance creates a mock appliance with one root "/dev/sda1" that
// has "/" and "/boot" mountpoints. Everything else succeeds.
func newMockAppliance() *mockAppliance {
	m := &mockAppliance{}

	m.inspectRootsFunc = func() ([]string, error) {
		return []string{"/dev/sda1"}, nil
	}
	m.inspectMountpointsFunc = func(root string) (map[string]string, error) {
		return map[string]string{"/boot": "/dev/sda2", "/": "/dev/sda1"}, nil
	}
	m.existsFunc = func(path string) (bool, error) {
		return false, nil
	}

	return m
}

func (m *mockAppliance) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

// callsWithPrefix returns the tracked calls that start with prefix.
func (m *mockAppliance) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockAppliance) AddDrive(path string, opts DriveOptions) error {
	m.record("add_drive %s", path)
	if m.addDriveFunc != nil {
		return m.addDriveFunc(path, opts)
	}
	return nil
}

func (m *mockAppliance) SetNetwork(enabled bool) error {
	m.record("set_network %t", enabled)
	if m.setNetworkFunc != nil {
		return m.setNetworkFunc(enabled)
	}
	return nil
}

func (m *mockAppliance) Launch() error {
	m.record("launch")
	if m.launchFunc != nil {
		return m.launchFunc()
	}
	return nil
}

func (m *mockAppliance) InspectRoots() ([]string, error) {
	m.record("inspect_os")
	return m.inspectRootsFunc()
}

func (m *mockAppliance) InspectMountpoints(root string) (map[string]string, error) {
	m.record("inspect_get_mountpoints %s", root)
	return m.inspectMountpointsFunc(root)
}

func (m *mockAppliance) Mount(device, mountpoint string) error {
	m.record("mount %s %s", device, mountpoint)
	if m.mountFunc != nil {
		return m.mountFunc(device, mountpoint)
	}
	return nil
}

func (m *mockAppliance) Mounts() ([]string, error) {
	m.record("mounts")
	return nil, nil
}

func (m *mockAppliance) UnmountAll() error {
	m.record("umount_all")
	if m.unmountAllFunc != nil {
		return m.unmountAllFunc()
	}
	return nil
}

func (m *mockAppliance) Sync() error {
	m.record("sync")
	if m.syncFunc != nil {
		return m.syncFunc()
	}
	return nil
}

func (m *mockAppliance) Shutdown() error {
	m.record("shutdown")
	if m.shutdownFunc != nil {
		return m.shutdownFunc()
	}
	return nil
}

func (m *mockAppliance) Close() error {
	m.record("close")
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockAppliance) IsRegularFile(path string) (bool, error) {
	m.record("is_file %s", path)
	return true, nil
}

func (m *mockAppliance) Checksum(algorithm, path string) (string, error) {
	m.record("checksum %s %s", algorithm, path)
	return "", nil
}

func (m *mockAppliance) CopyRecursive(src, dest string) error {
	m.record("copy_out %s %s", src, dest)
	return nil
}

func (m *mockAppliance) Download(src, dest string) error {
	m.record("download %s %s", src, dest)
	return nil
}

func (m *mockAppliance) ReadLines(path string) ([]string, error) {
	m.record("read_lines %s", path)
	if m.readLinesFunc != nil {
		return m.readLinesFunc(path)
	}
	return nil, nil
}

func (m *mockAppliance) RemoveForce(path string) error {
	m.record("rm_f %s", path)
	if m.removeForceFunc != nil {
		return m.removeForceFunc(path)
	}
	return nil
}

func (m *mockAppliance) Touch(path string) error {
	m.record("touch %s", path)
	if m.touchFunc != nil {
		return m.touchFunc(path)
	}
	return nil
}

func (m *mockAppliance) Exists(path string) (bool, error) {
	m.record("exists %s", path)
	return m.existsFunc(path)
}

func (m *mockAppliance) SELinuxRelabel(specFile, path string, force bool) error {
	m.record("selinux_relabel %s %s", specFile, path)
	if m.selinuxRelabelFunc != nil {
		return m.selinuxRelabelFunc(specFile, path, force)
	}
	return nil
}

func (m *mockAppliance) Sh(command string) (string, error) {
	m.record("sh %s", command)
	return "", nil
}

func (m *mockAppliance) Command(argv []string) (string, error) {
	m.record("command %s", strings.Join(argv, " "))
	return "", nil
}

func (m *mockAppliance) InspectPackageManagement(root string) (string, error) {
	m.record("inspect_get_package_management %s", root)
	return "unknown", nil
}

func (m *mockAppliance) InspectApplications(root string) ([]Application, error) {
	m.record("inspect_list_applications2 %s", root)
	return nil, nil
}

// factoryFor returns a Factory that always hands out m and counts its calls.
func factoryFor(m *mockAppliance, calls *int) Factory {
	return func() (Appliance, error) {
		*calls++
		return m, nil
	}
}
