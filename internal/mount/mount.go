// Package mount decides which guest filesystems a session mounts and in
// which order.
package mount

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jbweber/anvil/internal/errdefs"
)

// Entry is a single device to mountpoint pair inside the guest.
type Entry struct {
	Device     string `json:"device" yaml:"device"`
	Mountpoint string `json:"mountpoint" yaml:"mountpoint"`
}

// String returns the entry in "device:mountpoint" form.
func (e Entry) String() string {
	return e.Device + ":" + e.Mountpoint
}

// Validate checks that both sides of the pair are present and the
// mountpoint is an absolute guest path.
func (e Entry) Validate() error {
	if e.Device == "" {
		return fmt.Errorf("%w: device is required", errdefs.ErrConfiguration)
	}
	if e.Mountpoint == "" {
		return fmt.Errorf("%w: mountpoint is required for device %s", errdefs.ErrConfiguration, e.Device)
	}
	if !path.IsAbs(e.Mountpoint) {
		return fmt.Errorf("%w: mountpoint %q for device %s must be absolute", errdefs.ErrConfiguration, e.Mountpoint, e.Device)
	}
	return nil
}

// Policy selects between automatic detection and an explicit mount list.
// Exactly one of Automount and Mounts may be set.
type Policy struct {
	Automount bool
	Mounts    []Entry
}

// Automatic returns the automount policy.
func Automatic() Policy {
	return Policy{Automount: true}
}

// Manual returns a policy that mounts entries in the given order.
func Manual(entries ...Entry) Policy {
	return Policy{Mounts: entries}
}

// Resolve builds a policy from an optional automount switch and a manual
// mount list. When automount is nil it is on only if mounts is empty.
// Conflicting combinations are left for Validate to reject.
func Resolve(automount *bool, mounts []Entry) Policy {
	auto := len(mounts) == 0
	if automount != nil {
		auto = *automount
	}
	return Policy{Automount: auto, Mounts: mounts}
}

// Validate rejects a policy that requests both automount and manual mounts,
// or neither.
func (p Policy) Validate() error {
	if p.Automount && len(p.Mounts) > 0 {
		return fmt.Errorf("%w: automount and manual mounts were both requested, disable automount when providing mounts", errdefs.ErrConfiguration)
	}
	if !p.Automount && len(p.Mounts) == 0 {
		return fmt.Errorf("%w: automount is disabled and no mountpoints were provided", errdefs.ErrConfiguration)
	}
	for i, e := range p.Mounts {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("mounts[%d]: %w", i, err)
		}
	}
	return nil
}

// ParseSpec parses a "device:mountpoint" string, e.g. "/dev/sda1:/".
func ParseSpec(spec string) (Entry, error) {
	if spec == "" {
		return Entry{}, fmt.Errorf("%w: mount specification cannot be empty", errdefs.ErrConfiguration)
	}

	// Devices never contain a colon followed by a slash, mountpoints always
	// start with one, so split on the last ":/".
	idx := strings.LastIndex(spec, ":/")
	if idx <= 0 {
		return Entry{}, fmt.Errorf("%w: mount %q must be in device:mountpoint form", errdefs.ErrConfiguration, spec)
	}

	e := Entry{Device: spec[:idx], Mountpoint: spec[idx+1:]}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ParseEntry converts a single-pair map such as {"/dev/sda1": "/"} into an
// Entry. Anything other than exactly one pair is a mount conflict.
func ParseEntry(m map[string]string) (Entry, error) {
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Entry{}, fmt.Errorf("%w: mount entry is expected to have a single device, got %d %v", errdefs.ErrMountConflict, len(m), keys)
	}

	var e Entry
	for device, mountpoint := range m {
		e = Entry{Device: device, Mountpoint: mountpoint}
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ParseEntries applies ParseEntry to each element, keeping caller order.
func ParseEntries(ms []map[string]string) ([]Entry, error) {
	entries := make([]Entry, 0, len(ms))
	for i, m := range ms {
		e, err := ParseEntry(m)
		if err != nil {
			return nil, fmt.Errorf("mounts[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
