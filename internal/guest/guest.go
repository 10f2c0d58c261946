// Package guest implements the operations run against a mounted session:
// commands, file fetches, packages and users.
//
// Every operation takes a Session, asks it for the mounted appliance and
// performs one unit of work. Operations never open or close sessions; use
// session.Run for that:
//
//	err := session.Run(ctx, opts, policy, appliance.Factory, func(s *session.Session) error {
//	    res, err = guest.RunCommand(s, guest.CommandRequest{Shell: "rpm -qa"})
//	    return err
//	})
package guest

import (
	"strings"

	"github.com/jbweber/anvil/internal/session"
)

// Session is the part of *session.Session the operations need.
type Session interface {
	Appliance() (session.Appliance, error)
}

// Result is the outcome of a successful operation.
type Result struct {
	Changed bool
	Output  string
	// Data holds operation-specific fields, e.g. stdout_lines or checksum.
	Data map[string]any
}

// PartialError is an operation failure that still carries the results
// gathered before the failure was detected.
type PartialError struct {
	Err    error
	Result *Result
}

func (e *PartialError) Error() string { return e.Err.Error() }

func (e *PartialError) Unwrap() error { return e.Err }

// splitLines splits output on newlines, dropping carriage returns.
func splitLines(out string) []string {
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
