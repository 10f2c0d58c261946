// Package appliance adapts the libguestfs Go binding to session.Appliance.
//
// The binding is a cgo package shipped with libguestfs itself
// (libguestfs.org/guestfs), so the real adapter is only compiled with the
// guestfs build tag:
//
//	go build -tags guestfs ./cmd/anvil
//
// Without the tag Factory returns errdefs.ErrBackendUnavailable and every other
// package still builds and tests without libguestfs installed.
//
// Usage:
//
//	err := session.Run(ctx, opts, mount.Automatic(), appliance.Factory, func(s *session.Session) error {
//	    res, err := guest.RunCommand(s, guest.CommandRequest{Shell: "uname -r"})
//	    ...
//	})
package appliance
