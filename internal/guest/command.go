package guest

import (
	"fmt"
	"strings"

	"github.com/jbweber/anvil/internal/errdefs"
)

// stderrUnavailable replaces the empty "sh: " / "command: " messages the
// backend produces when a command only wrote to stderr.
const stderrUnavailable = "command has returned stderr to shell but guestfs does not return it"

// CommandRequest selects a shell command or an argv command. Exactly one
// must be set.
type CommandRequest struct {
	// Shell is run by the guest's /bin/sh.
	Shell string `json:"shell,omitempty" yaml:"shell,omitempty"`
	// Command is split on whitespace and executed directly.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

// Validate checks that exactly one of Shell and Command is set.
func (r CommandRequest) Validate() error {
	shell := strings.TrimSpace(r.Shell) != ""
	command := strings.TrimSpace(r.Command) != ""
	switch {
	case shell && command:
		return fmt.Errorf("%w: shell and command are mutually exclusive", errdefs.ErrConfiguration)
	case !shell && !command:
		return fmt.Errorf("%w: one of shell or command is required", errdefs.ErrConfiguration)
	}
	return nil
}

// RunCommand runs req in the guest.
//
// Data carries "stdout" (one trailing newline removed) and "stdout_lines".
func RunCommand(s Session, req CommandRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	app, err := s.Appliance()
	if err != nil {
		return nil, err
	}

	var out string
	if strings.TrimSpace(req.Shell) != "" {
		out, err = app.Sh(req.Shell)
	} else {
		out, err = app.Command(strings.Fields(req.Command))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errdefs.ErrExecution, executionMessage(err))
	}

	stdout := strings.TrimSuffix(out, "\n")
	return &Result{
		Changed: true,
		Output:  stdout,
		Data: map[string]any{
			"stdout":       stdout,
			"stdout_lines": splitLines(stdout),
		},
	}, nil
}

func executionMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "sh:" || msg == "command:" {
		return stderrUnavailable
	}
	return msg
}
