//go:build guestfs

package appliance

import (
	"fmt"
	"path"

	"libguestfs.org/guestfs"

	"github.com/jbweber/anvil/internal/session"
)

// Guestfs implements session.Appliance on a libguestfs handle.
type Guestfs struct {
	g *guestfs.Guestfs
}

// New creates an unlaunched libguestfs handle.
func New() (*Guestfs, error) {
	g, err := guestfs.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create libguestfs handle: %w", err)
	}
	return &Guestfs{g: g}, nil
}

// Factory is a session.Factory backed by libguestfs.
func Factory() (session.Appliance, error) {
	a, err := New()
	if err != nil {
		return nil, err
	}
	return a, nil
}

// check converts a binding error to error without producing a typed nil.
func check(err *guestfs.GuestfsError) error {
	if err == nil {
		return nil
	}
	return err
}

func (a *Guestfs) AddDrive(path string, opts session.DriveOptions) error {
	optargs := &guestfs.OptargsAdd_drive{
		Readonly_is_set: true,
		Readonly:        opts.ReadOnly,
	}
	if opts.Format != "" {
		optargs.Format_is_set = true
		optargs.Format = opts.Format
	}
	return check(a.g.Add_drive(path, optargs))
}

func (a *Guestfs) SetNetwork(enabled bool) error {
	return check(a.g.Set_network(enabled))
}

func (a *Guestfs) Launch() error {
	return check(a.g.Launch())
}

func (a *Guestfs) InspectRoots() ([]string, error) {
	roots, err := a.g.Inspect_os()
	return roots, check(err)
}

func (a *Guestfs) InspectMountpoints(root string) (map[string]string, error) {
	mps, err := a.g.Inspect_get_mountpoints(root)
	return mps, check(err)
}

func (a *Guestfs) Mount(device, mountpoint string) error {
	return check(a.g.Mount(device, mountpoint))
}

func (a *Guestfs) Mounts() ([]string, error) {
	devices, err := a.g.Mounts()
	return devices, check(err)
}

func (a *Guestfs) UnmountAll() error {
	return check(a.g.Umount_all())
}

func (a *Guestfs) Sync() error {
	return check(a.g.Sync())
}

func (a *Guestfs) Shutdown() error {
	return check(a.g.Shutdown())
}

func (a *Guestfs) Close() error {
	return check(a.g.Close())
}

func (a *Guestfs) IsRegularFile(path string) (bool, error) {
	ok, err := a.g.Is_file(path, &guestfs.OptargsIs_file{Followsymlinks_is_set: true, Followsymlinks: false})
	return ok, check(err)
}

func (a *Guestfs) Checksum(algorithm, path string) (string, error) {
	sum, err := a.g.Checksum(algorithm, path)
	return sum, check(err)
}

func (a *Guestfs) CopyRecursive(src, dest string) error {
	entries, err := a.g.Ls(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := a.g.Copy_out(path.Join(src, entry), dest); err != nil {
			return err
		}
	}
	return nil
}

func (a *Guestfs) Download(src, dest string) error {
	return check(a.g.Download(src, dest))
}

func (a *Guestfs) ReadLines(path string) ([]string, error) {
	lines, err := a.g.Read_lines(path)
	return lines, check(err)
}

func (a *Guestfs) RemoveForce(path string) error {
	return check(a.g.Rm_f(path))
}

func (a *Guestfs) Touch(path string) error {
	return check(a.g.Touch(path))
}

func (a *Guestfs) Exists(path string) (bool, error) {
	ok, err := a.g.Exists(path)
	return ok, check(err)
}

func (a *Guestfs) SELinuxRelabel(specFile, path string, force bool) error {
	return check(a.g.Selinux_relabel(specFile, path, &guestfs.OptargsSelinux_relabel{
		Force_is_set: true,
		Force:        force,
	}))
}

func (a *Guestfs) Sh(command string) (string, error) {
	out, err := a.g.Sh(command)
	return out, check(err)
}

func (a *Guestfs) Command(argv []string) (string, error) {
	out, err := a.g.Command(argv)
	return out, check(err)
}

func (a *Guestfs) InspectPackageManagement(root string) (string, error) {
	family, err := a.g.Inspect_get_package_management(root)
	return family, check(err)
}

func (a *Guestfs) InspectApplications(root string) ([]session.Application, error) {
	apps, err := a.g.Inspect_list_applications2(root)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		return nil, nil
	}

	out := make([]session.Application, 0, len(*apps))
	for _, app := range *apps {
		out = append(out, session.Application{
			Name:    app.App2_name,
			Epoch:   int(app.App2_epoch),
			Version: app.App2_version,
			Release: app.App2_release,
			Arch:    app.App2_arch,
		})
	}
	return out, nil
}
