package image

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jbweber/anvil/internal/errdefs"
)

// diskLister reports the disks attached to running domains.
// Implemented by *libvirt.Client.
type diskLister interface {
	ActiveDiskSources() (map[string][]string, error)
}

// CheckInUse fails with ErrImageInUse if a running domain has h attached,
// matching either its host path or its pool:volume reference.
func CheckInUse(h Handle, lister diskLister) error {
	domains, err := lister.ActiveDiskSources()
	if err != nil {
		return fmt.Errorf("failed to check running domains: %w", err)
	}

	names := make([]string, 0, len(domains))
	for name := range domains {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, src := range domains[name] {
			if matches(h, src) {
				return fmt.Errorf("%w: %s is attached to running domain %s (use --force to override)",
					errdefs.ErrImageInUse, h.Path, name)
			}
		}
	}
	return nil
}

func matches(h Handle, src string) bool {
	if h.Ref.IsVolume() && src == h.Ref.Pool+":"+h.Ref.Volume {
		return true
	}
	if !filepath.IsAbs(src) {
		return false
	}
	if filepath.Clean(src) == filepath.Clean(h.Path) {
		return true
	}
	a, errA := filepath.EvalSymlinks(src)
	b, errB := filepath.EvalSymlinks(h.Path)
	return errA == nil && errB == nil && a == b
}
