package guest

import (
	"errors"
	"fmt"

	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/session"
)

// mockSession is a mock implementation of the Session interface for testing.
type mockSession struct {
	app     session.Appliance
	mounted bool
}

func (s *mockSession) Appliance() (session.Appliance, error) {
	if !s.mounted {
		return nil, fmt.Errorf("%w: session is Opened", errdefs.ErrNotMounted)
	}
	return s.app, nil
}

// mountedSession wraps app in a mounted mock session.
func mountedSession(app session.Appliance) *mockSession {
	return &mockSession{app: app, mounted: true}
}

// mockAppliance is a mock implementation of session.Appliance for testing.
type mockAppliance struct {
	// Configurable behavior
	shFunc            func(command string) (string, error)
	commandFunc       func(argv []string) (string, error)
	isFileFunc        func(path string) (bool, error)
	checksumFunc      func(algorithm, path string) (string, error)
	downloadFunc      func(src, dest string) error
	copyRecursiveFunc func(src, dest string) error
	mountsFunc        func() ([]string, error)
	packageMgmtFunc   func(root string) (string, error)
	applicationsFunc  func(root string) ([]session.Application, error)
	existsFunc        func(path string) (bool, error)
	readLinesFunc     func(path string) ([]string, error)

	// Call tracking
	shCalls       []string
	commandCalls  [][]string
	downloadCalls []string
	copyCalls     []string
}

// newMockAppliance creates a mock appliance with default behavior: every
// command succeeds with empty output and one device "/dev/sda1" is mounted.
func newMockAppliance() *mockAppliance {
	m := &mockAppliance{}

	m.shFunc = func(command string) (string, error) { return "", nil }
	m.commandFunc = func(argv []string) (string, error) { return "", nil }
	m.isFileFunc = func(path string) (bool, error) { return true, nil }
	m.checksumFunc = func(algorithm, path string) (string, error) { return "", nil }
	m.downloadFunc = func(src, dest string) error { return nil }
	m.copyRecursiveFunc = func(src, dest string) error { return nil }
	m.mountsFunc = func() ([]string, error) { return []string{"/dev/sda1"}, nil }
	m.packageMgmtFunc = func(root string) (string, error) { return "unknown", nil }
	m.applicationsFunc = func(root string) ([]session.Application, error) { return nil, nil }
	m.existsFunc = func(path string) (bool, error) { return false, nil }
	m.readLinesFunc = func(path string) ([]string, error) { return nil, errors.New("no such file") }

	return m
}

// commandsNamed returns the argv command calls whose binary is name.
func (m *mockAppliance) commandsNamed(name string) [][]string {
	var out [][]string
	for _, argv := range m.commandCalls {
		if len(argv) > 0 && argv[0] == name {
			out = append(out, argv)
		}
	}
	return out
}

func (m *mockAppliance) AddDrive(path string, opts session.DriveOptions) error { return nil }
func (m *mockAppliance) SetNetwork(enabled bool) error                         { return nil }
func (m *mockAppliance) Launch() error                                         { return nil }
func (m *mockAppliance) InspectRoots() ([]string, error)                       { return nil, nil }
func (m *mockAppliance) InspectMountpoints(root string) (map[string]string, error) {
	return nil, nil
}
func (m *mockAppliance) Mount(device, mountpoint string) error { return nil }
func (m *mockAppliance) UnmountAll() error                     { return nil }
func (m *mockAppliance) Sync() error                           { return nil }
func (m *mockAppliance) Shutdown() error                       { return nil }
func (m *mockAppliance) Close() error                          { return nil }
func (m *mockAppliance) RemoveForce(path string) error         { return nil }
func (m *mockAppliance) Touch(path string) error               { return nil }
func (m *mockAppliance) SELinuxRelabel(specFile, path string, force bool) error {
	return nil
}

func (m *mockAppliance) Mounts() ([]string, error) {
	return m.mountsFunc()
}

func (m *mockAppliance) IsRegularFile(path string) (bool, error) {
	return m.isFileFunc(path)
}

func (m *mockAppliance) Checksum(algorithm, path string) (string, error) {
	return m.checksumFunc(algorithm, path)
}

func (m *mockAppliance) CopyRecursive(src, dest string) error {
	m.copyCalls = append(m.copyCalls, src+" "+dest)
	return m.copyRecursiveFunc(src, dest)
}

func (m *mockAppliance) Download(src, dest string) error {
	m.downloadCalls = append(m.downloadCalls, src+" "+dest)
	return m.downloadFunc(src, dest)
}

func (m *mockAppliance) ReadLines(path string) ([]string, error) {
	return m.readLinesFunc(path)
}

func (m *mockAppliance) Exists(path string) (bool, error) {
	return m.existsFunc(path)
}

func (m *mockAppliance) Sh(command string) (string, error) {
	m.shCalls = append(m.shCalls, command)
	return m.shFunc(command)
}

func (m *mockAppliance) Command(argv []string) (string, error) {
	m.commandCalls = append(m.commandCalls, argv)
	return m.commandFunc(argv)
}

func (m *mockAppliance) InspectPackageManagement(root string) (string, error) {
	return m.packageMgmtFunc(root)
}

func (m *mockAppliance) InspectApplications(root string) ([]session.Application, error) {
	return m.applicationsFunc(root)
}

// guestfsError mimics the "op: message" text of backend errors.
func guestfsError(op, msg string) error {
	return errors.New(op + ": " + msg)
}
