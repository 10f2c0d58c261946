package mount

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jbweber/anvil/internal/errdefs"
)

// Inspector is the part of the appliance the planner needs to detect
// operating system roots and their filesystem layout.
type Inspector interface {
	InspectRoots() ([]string, error)
	InspectMountpoints(root string) (map[string]string, error)
}

// Plan returns the ordered list of entries to mount for policy.
//
// Manual policies are returned in caller order. Automount mounts only the
// first detected root: the mountpoint whose device is the root itself comes
// first, the remaining mountpoints of that root follow in ascending
// lexicographic path order so parents are mounted before their children.
func Plan(inspector Inspector, policy Policy, logger *slog.Logger) ([]Entry, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if !policy.Automount {
		return append([]Entry(nil), policy.Mounts...), nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	roots, err := inspector.InspectRoots()
	if err != nil {
		return nil, fmt.Errorf("%w: inspection failed: %v", errdefs.ErrNoRootsFound, err)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: automount failed, no devices were found in guest disk image, consider attempting manual mount", errdefs.ErrNoRootsFound)
	}

	root := roots[0]
	for _, skipped := range roots[1:] {
		logger.Info("skipping additional operating system root", "root", skipped, "mounted_root", root)
	}

	mps, err := inspector.InspectMountpoints(root)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to inspect mountpoints of %s: %v", errdefs.ErrNoMountpointDetected, root, err)
	}

	return planRoot(root, mps)
}

// planRoot orders the mountpoints of a single root.
func planRoot(root string, mps map[string]string) ([]Entry, error) {
	var own []string
	var subs []string
	for p, device := range mps {
		if device == root {
			own = append(own, p)
		} else {
			subs = append(subs, p)
		}
	}
	if len(own) == 0 {
		return nil, fmt.Errorf("%w: failed to detect associated mountpoint for device %s", errdefs.ErrNoMountpointDetected, root)
	}

	sort.Strings(own)
	sort.Strings(subs)

	// The root device is mounted once, at its shallowest path. Any other
	// path mapped to the same device would be a bind of itself.
	entries := []Entry{{Device: root, Mountpoint: own[0]}}
	for _, p := range subs {
		entries = append(entries, Entry{Device: mps[p], Mountpoint: p})
	}
	return entries, nil
}
