package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/anvil/api/v1alpha1"
	"github.com/jbweber/anvil/internal/appliance"
	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/guest"
	"github.com/jbweber/anvil/internal/image"
	"github.com/jbweber/anvil/internal/libvirt"
	"github.com/jbweber/anvil/internal/loader"
	"github.com/jbweber/anvil/internal/mount"
	"github.com/jbweber/anvil/internal/output"
	"github.com/jbweber/anvil/internal/pkgmgr"
	"github.com/jbweber/anvil/internal/session"
)

// newAppliance builds the backend for each session.
var newAppliance session.Factory = appliance.Factory

// operation runs against a mounted session.
type operation func(s guest.Session) (*guest.Result, error)

// sessionFlags are the image and mount flags shared by every operation
// command.
type sessionFlags struct {
	automount      bool
	mounts         []string
	network        bool
	selinuxRelabel bool
	force          bool
}

func addSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().BoolVar(&f.automount, "automount", true, "mount the guest filesystems found by inspection (default on unless --mount is given)")
	cmd.Flags().StringArrayVarP(&f.mounts, "mount", "m", nil, "mount device:mountpoint, e.g. /dev/sda1:/ (repeatable, mounted in order)")
	cmd.Flags().BoolVar(&f.network, "network", true, "enable networking in the appliance (default from config)")
	cmd.Flags().BoolVar(&f.selinuxRelabel, "selinux-relabel", false, "relabel the guest filesystem before closing (default from config)")
	cmd.Flags().BoolVar(&f.force, "force", false, "modify the image even if a running domain has it attached")
}

// apply copies the flags the user actually set onto task. Unset flags
// leave the task fields nil so config defaults apply later.
func (f *sessionFlags) apply(cmd *cobra.Command, task *v1alpha1.GuestTask) error {
	flags := cmd.Flags()
	if flags.Changed("automount") {
		task.Spec.Automount = &f.automount
	}
	if flags.Changed("network") {
		task.Spec.Network = &f.network
	}
	if flags.Changed("selinux-relabel") {
		task.Spec.SELinuxRelabel = &f.selinuxRelabel
	}
	task.Spec.Force = task.Spec.Force || f.force

	for i, spec := range f.mounts {
		e, err := mount.ParseSpec(spec)
		if err != nil {
			return fmt.Errorf("--mount[%d]: %w", i, err)
		}
		task.Spec.Mounts = append(task.Spec.Mounts, map[string]string{e.Device: e.Mountpoint})
	}
	return nil
}

// runFlagTask validates a task built from command line flags and runs it.
func runFlagTask(cmd *cobra.Command, f *sessionFlags, task *v1alpha1.GuestTask) error {
	if err := f.apply(cmd, task); err != nil {
		return reportFailure(cmd.OutOrStdout(), task.Spec.Image, task.Name, err)
	}
	if err := loader.Validate(task); err != nil {
		return reportFailure(cmd.OutOrStdout(), task.Spec.Image, task.Name, err)
	}
	return runTask(cmd.Context(), cmd.OutOrStdout(), task)
}

// runTask executes a validated task and prints its report.
func runTask(ctx context.Context, w io.Writer, task *v1alpha1.GuestTask) error {
	res, err := executeTask(ctx, task)
	r := output.NewReport(task.Spec.Image, res, err)
	r.Task = task.Name
	return printReport(w, r)
}

func executeTask(ctx context.Context, task *v1alpha1.GuestTask) (*guest.Result, error) {
	policy, err := loader.Policy(task)
	if err != nil {
		return nil, err
	}
	op, err := taskOperation(task, cfg.Defaults.Checksum)
	if err != nil {
		return nil, err
	}

	h, err := resolveImage(ctx, task.Spec.Image, task.Spec.Force)
	if err != nil {
		return nil, err
	}

	opts := session.Options{
		Image:          h.Path,
		Format:         string(h.Format),
		Network:        v1alpha1.BoolOr(task.Spec.Network, cfg.Defaults.Network),
		SELinuxRelabel: v1alpha1.BoolOr(task.Spec.SELinuxRelabel, cfg.Defaults.SELinuxRelabel),
		Logger:         slog.Default().With("image", h.Ref.Raw, "operation", task.Operation()),
	}

	var res *guest.Result
	err = session.Run(ctx, opts, policy, newAppliance, func(s *session.Session) error {
		var opErr error
		res, opErr = op(s)
		return opErr
	})
	return res, err
}

// taskOperation turns the operation section of task into a closure. Inputs
// are checked here so that bad requests fail before an appliance launches.
func taskOperation(task *v1alpha1.GuestTask, checksum string) (operation, error) {
	spec := task.Spec
	switch {
	case spec.Command != nil:
		req := guest.CommandRequest{Shell: spec.Command.Shell, Command: spec.Command.Command}
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return func(s guest.Session) (*guest.Result, error) {
			return guest.RunCommand(s, req)
		}, nil

	case spec.CopyOut != nil:
		fetcher := guest.NewFetcher(checksum)
		req := guest.FetchRequest{Src: spec.CopyOut.Src, Dest: spec.CopyOut.Dest, Recursive: spec.CopyOut.Recursive}
		return func(s guest.Session) (*guest.Result, error) {
			return fetcher.Fetch(s, req)
		}, nil

	case spec.Package != nil:
		packages := guest.NewPackages()
		if pattern := spec.Package.List; pattern != "" {
			return func(s guest.Session) (*guest.Result, error) {
				return packages.Query(s, pattern)
			}, nil
		}
		state, err := pkgmgr.ParseState(task.PackageState())
		if err != nil {
			return nil, err
		}
		names := spec.Package.Names
		return func(s guest.Session) (*guest.Result, error) {
			return packages.Apply(s, names, state)
		}, nil

	case spec.User != nil:
		state, err := pkgmgr.ParseState(task.UserState())
		if err != nil {
			return nil, err
		}
		req := guest.UserRequest{Name: spec.User.Name, State: state, AuthorizedKeys: spec.User.AuthorizedKeys}
		if state == pkgmgr.StatePresent {
			if req.Password, err = loader.ReadPassword(spec.User); err != nil {
				return nil, err
			}
		}
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return func(s guest.Session) (*guest.Result, error) {
			return guest.ApplyUser(s, req)
		}, nil
	}

	return nil, fmt.Errorf("%w: task has no operation", errdefs.ErrConfiguration)
}

// resolveImage turns ref into a host path and refuses images attached to a
// running domain unless force is set. Libvirt is only contacted for
// pool:volume references and the in-use check; when it is unreachable a
// path reference skips the check with a warning.
func resolveImage(ctx context.Context, ref string, force bool) (image.Handle, error) {
	r, err := image.ParseReference(ref)
	if err != nil {
		return image.Handle{}, err
	}

	checkInUse := cfg.Libvirt.CheckInUse && !force
	if !r.IsVolume() && !checkInUse {
		return image.Resolve(ref, nil)
	}

	client, err := libvirt.ConnectWithContext(ctx, cfg.Libvirt.Socket, cfg.Libvirt.Timeout)
	if err != nil {
		if r.IsVolume() {
			return image.Handle{}, fmt.Errorf("%w: %s needs libvirt: %v", errdefs.ErrImageNotFound, ref, err)
		}
		slog.Warn("skipping in-use check, libvirt is unavailable", "image", ref, "error", err)
		return image.Resolve(ref, nil)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
		}
	}()

	h, err := image.Resolve(ref, client)
	if err != nil {
		return image.Handle{}, err
	}
	if checkInUse {
		if err := image.CheckInUse(h, client); err != nil {
			return image.Handle{}, err
		}
	}
	return h, nil
}

// printReport writes r in the configured format. A failed report returns
// errReported.
func printReport(w io.Writer, r *output.Report) error {
	format := output.FormatTable
	if cfg != nil {
		format = output.Format(cfg.Output)
	}

	formatter, err := output.NewFormatter(output.Options{Format: format, NoHeaders: noHeaders})
	if err != nil {
		return err
	}
	text, err := formatter.FormatReport(r)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	if _, err := fmt.Fprint(w, text); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if r.Failed {
		return errReported
	}
	return nil
}

// reportFailure prints a report for an error raised before any session.
func reportFailure(w io.Writer, img, task string, err error) error {
	r := output.NewReport(img, nil, err)
	r.Task = task
	return printReport(w, r)
}
