package session

// Appliance is the capability interface to the disk-image backend.
//
// In production this is satisfied by *appliance.Guestfs (built with the
// guestfs tag). In tests it is satisfied by mock implementations.
//
// A Session owns exactly one Appliance from Open until Close; nothing else
// may hold on to it across the session boundary.
type Appliance interface {
	// AddDrive registers a disk image with the appliance before launch.
	AddDrive(path string, opts DriveOptions) error

	// SetNetwork enables or disables networking inside the appliance.
	SetNetwork(enabled bool) error

	// Launch starts the appliance process.
	Launch() error

	// InspectRoots returns the root devices of detected operating systems.
	InspectRoots() ([]string, error)

	// InspectMountpoints maps guest paths to devices for an OS root.
	InspectMountpoints(root string) (map[string]string, error)

	// Mount mounts a device at a guest path.
	Mount(device, mountpoint string) error

	// Mounts lists the devices currently mounted.
	Mounts() ([]string, error)

	// UnmountAll unmounts every mounted filesystem.
	UnmountAll() error

	// Sync flushes pending writes to the image.
	Sync() error

	// Shutdown stops the appliance process.
	Shutdown() error

	// Close releases the handle.
	Close() error

	// IsRegularFile reports whether path is a regular file (symlinks are not followed).
	IsRegularFile(path string) (bool, error)

	// Checksum computes a checksum of a guest file, e.g. algorithm "md5".
	Checksum(algorithm, path string) (string, error)

	// CopyRecursive makes the existing host directory dest a copy of guest
	// directory src.
	CopyRecursive(src, dest string) error

	// Download copies a guest file to a host file.
	Download(src, dest string) error

	// ReadLines reads a guest text file as lines.
	ReadLines(path string) ([]string, error)

	// RemoveForce removes a guest file, ignoring a missing file.
	RemoveForce(path string) error

	// Touch creates an empty guest file or updates its timestamps.
	Touch(path string) error

	// Exists reports whether a guest path exists.
	Exists(path string) (bool, error)

	// SELinuxRelabel relabels path using the file-contexts specification specFile.
	SELinuxRelabel(specFile, path string, force bool) error

	// Sh runs a command through the guest's /bin/sh and returns its stdout.
	Sh(command string) (string, error)

	// Command runs argv directly in the guest and returns its stdout.
	Command(argv []string) (string, error)

	// InspectPackageManagement returns the package management family of an
	// OS root, e.g. "dnf", "yum", "apt" or "unknown".
	InspectPackageManagement(root string) (string, error)

	// InspectApplications lists the applications installed in an OS root.
	InspectApplications(root string) ([]Application, error)
}

// DriveOptions controls how an image is attached.
type DriveOptions struct {
	ReadOnly bool
	// Format is the image format ("qcow2", "raw"); empty lets the backend probe.
	Format string
}

// Application is one installed package as reported by inspection.
type Application struct {
	Name    string `json:"name" yaml:"name"`
	Epoch   int    `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	Version string `json:"version" yaml:"version"`
	Release string `json:"release" yaml:"release"`
	Arch    string `json:"arch" yaml:"arch"`
}

// String formats the application as name-version-release-arch.
func (a Application) String() string {
	return a.Name + "-" + a.Version + "-" + a.Release + "-" + a.Arch
}

// Factory constructs a fresh, unlaunched Appliance.
type Factory func() (Appliance, error)
