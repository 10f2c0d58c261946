// Package image resolves image references to host paths and guards against
// modifying images that a running virtual machine has attached.
package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/jbweber/anvil/internal/errdefs"
)

// Reference is a parsed image reference.
//
// Supports two forms:
//   - File path: "/var/lib/libvirt/images/fedora.qcow2", "./disk.img", "~/vm.qcow2", "disk.img"
//   - Pool:volume: "default:fedora.qcow2", resolved through libvirt
type Reference struct {
	Raw    string
	Path   string
	Pool   string
	Volume string
}

// IsVolume reports whether the reference names a libvirt storage volume.
func (r Reference) IsVolume() bool {
	return r.Pool != ""
}

// ParseReference parses an image reference.
func ParseReference(ref string) (Reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Reference{}, fmt.Errorf("%w: image is required", errdefs.ErrConfiguration)
	}

	if strings.ContainsAny(ref, "/~") || strings.HasPrefix(ref, ".") || !strings.Contains(ref, ":") {
		path, err := homedir.Expand(ref)
		if err != nil {
			return Reference{}, fmt.Errorf("%w: %v", errdefs.ErrConfiguration, err)
		}
		return Reference{Raw: ref, Path: filepath.Clean(path)}, nil
	}

	pool, volume, _ := strings.Cut(ref, ":")
	pool = strings.TrimSpace(pool)
	volume = strings.TrimSpace(volume)
	if pool == "" || volume == "" {
		return Reference{}, fmt.Errorf("%w: invalid pool:volume format %q: pool and volume cannot be empty", errdefs.ErrConfiguration, ref)
	}
	return Reference{Raw: ref, Pool: pool, Volume: volume}, nil
}

// Handle identifies one disk image on the host.
type Handle struct {
	Ref    Reference
	Path   string
	Format Format
}

// volumeResolver looks up storage volume paths.
// Implemented by *libvirt.Client.
type volumeResolver interface {
	VolumePath(pool, volume string) (string, error)
}

// Resolve turns ref into a Handle. Volume references need a non-nil
// resolver; plain paths never touch it. The image must exist.
func Resolve(ref string, resolver volumeResolver) (Handle, error) {
	r, err := ParseReference(ref)
	if err != nil {
		return Handle{}, err
	}

	path := r.Path
	if r.IsVolume() {
		if resolver == nil {
			return Handle{}, fmt.Errorf("%w: %s: pool:volume references require libvirt", errdefs.ErrConfiguration, ref)
		}
		path, err = resolver.VolumePath(r.Pool, r.Volume)
		if err != nil {
			return Handle{}, fmt.Errorf("%w: %s: %v", errdefs.ErrImageNotFound, ref, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Handle{}, fmt.Errorf("%w: %s", errdefs.ErrImageNotFound, path)
		}
		return Handle{}, fmt.Errorf("%w: %s: %v", errdefs.ErrImageNotFound, path, err)
	}
	if info.IsDir() {
		return Handle{}, fmt.Errorf("%w: %s is a directory", errdefs.ErrConfiguration, path)
	}

	format, err := DetectFormat(path)
	if err != nil {
		return Handle{}, err
	}

	return Handle{Ref: r, Path: path, Format: format}, nil
}
