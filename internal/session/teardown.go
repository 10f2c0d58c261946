package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jbweber/anvil/internal/errdefs"
)

const (
	selinuxConfigPath = "/etc/selinux/config"
	autorelabelMarker = "/.autorelabel"
)

var selinuxTypePattern = regexp.MustCompile(`^\s*SELINUXTYPE\s*=\s*"?([^"\s]*)"?`)

// Close tears the session down: relabel if requested, unmount, sync,
// shut down and release the handle.
//
// Every step is attempted even if an earlier one fails. The first failure is
// returned wrapped in ErrTeardown; later ones are logged. Close reports
// whether any teardown work was done, so a second call returns (false, nil).
func (s *Session) Close() (bool, error) {
	if s == nil || s.app == nil || IsTerminal(s.phase) {
		return false, nil
	}

	var first error
	record := func(step string, err error) {
		if err == nil {
			return
		}
		if first == nil {
			first = fmt.Errorf("%w: %s: %v", errdefs.ErrTeardown, step, err)
			return
		}
		s.log.Warn("teardown step failed", "step", step, "error", err)
	}

	if len(s.mounted) > 0 {
		if s.relabel && s.phase == PhaseMounted {
			record("selinux relabel", s.relabelSELinux())
		}
		record("unmount", s.app.UnmountAll())
	}
	record("sync", s.app.Sync())
	record("shutdown", s.app.Shutdown())
	record("close", s.app.Close())

	s.mounted = nil
	if err := s.transition(PhaseClosed); err != nil {
		s.phase = PhaseClosed
	}
	if first != nil {
		s.log.Error("teardown finished with errors", "error", first)
	} else {
		s.log.Info("appliance closed", "image", s.image)
	}
	return true, first
}

// relabelSELinux relabels the guest now when its file contexts can be found,
// and otherwise leaves an autorelabel marker for the next boot.
func (s *Session) relabelSELinux() error {
	policy, err := s.selinuxPolicy()
	if err != nil {
		return err
	}
	if policy == "" {
		s.log.Info("no selinux policy found, scheduling relabel on boot")
		return s.app.Touch(autorelabelMarker)
	}

	specFile := fmt.Sprintf("/etc/selinux/%s/contexts/files/file_contexts", policy)
	exists, err := s.app.Exists(specFile)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", specFile, err)
	}
	if !exists {
		s.log.Info("selinux file contexts missing, scheduling relabel on boot", "spec", specFile)
		return s.app.Touch(autorelabelMarker)
	}

	if err := s.app.RemoveForce(autorelabelMarker); err != nil {
		return fmt.Errorf("failed to remove %s: %w", autorelabelMarker, err)
	}
	s.log.Info("relabeling guest filesystem", "policy", policy)
	return s.app.SELinuxRelabel(specFile, "/", true)
}

// selinuxPolicy returns the SELINUXTYPE from the guest config, or "" when
// there is no config file or no such line.
func (s *Session) selinuxPolicy() (string, error) {
	exists, err := s.app.Exists(selinuxConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", selinuxConfigPath, err)
	}
	if !exists {
		return "", nil
	}

	lines, err := s.app.ReadLines(selinuxConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", selinuxConfigPath, err)
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if m := selinuxTypePattern.FindStringSubmatch(line); m != nil {
			return m[1], nil
		}
	}
	return "", nil
}
