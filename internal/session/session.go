// Package session owns the lifecycle of a disk-image appliance: attach the
// image, launch, mount the guest filesystems, hand the mounted handle to one
// operation and tear everything down again.
//
// A Session is not safe for concurrent use. One session is driven by one
// goroutine from Open to Close.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/mount"
)

// Options configures Open.
type Options struct {
	// Image is the host path to the disk image.
	Image string
	// Format is passed to the backend; empty lets it probe.
	Format string
	// Network enables networking inside the appliance.
	Network bool
	// SELinuxRelabel requests a relabel of the guest during teardown.
	SELinuxRelabel bool
	// Logger receives session events. Nil discards them.
	Logger *slog.Logger
}

// Session is an exclusive handle to one launched appliance.
type Session struct {
	image   string
	app     Appliance
	phase   Phase
	relabel bool
	mounted []mount.Entry
	log     *slog.Logger
}

// Open attaches the image read-write, applies the network setting and
// launches the appliance.
//
// A missing image fails with ErrImageNotFound before the backend is touched.
// If attaching or launching fails the handle is torn down before Open
// returns ErrLaunchFailure.
func Open(ctx context.Context, opts Options, newAppliance Factory) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.Image == "" {
		return nil, fmt.Errorf("%w: image path is required", errdefs.ErrConfiguration)
	}
	if _, err := os.Stat(opts.Image); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errdefs.ErrImageNotFound, opts.Image)
		}
		return nil, fmt.Errorf("%w: %s: %v", errdefs.ErrImageNotFound, opts.Image, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	app, err := newAppliance()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		image:   opts.Image,
		app:     app,
		phase:   PhaseUnopened,
		relabel: opts.SELinuxRelabel,
		log:     logger.With("session", id),
	}

	if err := s.launch(opts); err != nil {
		if _, closeErr := s.Close(); closeErr != nil {
			s.log.Debug("teardown after failed launch", "error", closeErr)
		}
		return nil, fmt.Errorf("%w: %v", errdefs.ErrLaunchFailure, err)
	}

	if err := s.transition(PhaseOpened); err != nil {
		return nil, err
	}
	s.log.Info("appliance launched", "image", opts.Image, "network", opts.Network)
	return s, nil
}

func (s *Session) launch(opts Options) error {
	if err := s.app.AddDrive(opts.Image, DriveOptions{Format: opts.Format}); err != nil {
		return fmt.Errorf("failed to add drive %s: %w", opts.Image, err)
	}
	if opts.Network {
		if err := s.app.SetNetwork(true); err != nil {
			return fmt.Errorf("failed to enable network: %w", err)
		}
	}
	if err := s.app.Launch(); err != nil {
		return fmt.Errorf("failed to launch: %w", err)
	}
	return nil
}

// ResolveAndMount plans the mounts for policy and mounts them in order.
//
// Mounts that succeed before a failure stay recorded so Close unmounts them.
func (s *Session) ResolveAndMount(policy mount.Policy) error {
	if s.phase != PhaseOpened {
		return fmt.Errorf("cannot mount session in phase %s", s.phase)
	}

	entries, err := mount.Plan(s.app, policy, s.log)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := s.app.Mount(e.Device, e.Mountpoint); err != nil {
			return fmt.Errorf("%w: couldn't mount device %s on %s inside guest disk image: %v",
				errdefs.ErrMountFailure, e.Device, e.Mountpoint, err)
		}
		s.mounted = append(s.mounted, e)
		s.log.Debug("mounted", "device", e.Device, "mountpoint", e.Mountpoint)
	}

	return s.transition(PhaseMounted)
}

// Appliance returns the mounted handle. It fails with ErrNotMounted until
// ResolveAndMount has succeeded and after Close.
func (s *Session) Appliance() (Appliance, error) {
	if s.phase != PhaseMounted {
		return nil, fmt.Errorf("%w: session is %s", errdefs.ErrNotMounted, s.phase)
	}
	return s.app, nil
}

// RequestRelabel asks for an SELinux relabel during teardown.
func (s *Session) RequestRelabel() {
	s.relabel = true
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// Mounted returns the entries mounted so far, in mount order.
func (s *Session) Mounted() []mount.Entry {
	out := make([]mount.Entry, len(s.mounted))
	copy(out, s.mounted)
	return out
}
