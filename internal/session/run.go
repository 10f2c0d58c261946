package session

import (
	"context"

	"github.com/jbweber/anvil/internal/mount"
)

// Run opens a session, mounts it according to policy and calls fn with the
// mounted session. The session is closed exactly once on every path,
// including a panic in fn.
//
// An error from mounting or from fn takes precedence over a teardown error;
// the teardown error is returned only when everything else succeeded.
func Run(ctx context.Context, opts Options, policy mount.Policy, newAppliance Factory, fn func(*Session) error) (err error) {
	if err := policy.Validate(); err != nil {
		return err
	}

	s, err := Open(ctx, opts, newAppliance)
	if err != nil {
		return err
	}

	defer func() {
		_, closeErr := s.Close()
		if closeErr == nil {
			return
		}
		if err == nil {
			err = closeErr
			return
		}
		s.log.Warn("teardown failed after operation error", "error", closeErr)
	}()

	if err := s.ResolveAndMount(policy); err != nil {
		return err
	}
	return fn(s)
}
