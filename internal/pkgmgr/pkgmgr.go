// Package pkgmgr turns a package request into a package-manager command line
// and turns the manager's output back into an Outcome.
//
// Manager output is human-readable text whose wording changes between
// releases, so every family has a named, versioned Parser that can be
// replaced in the Registry without touching the callers.
package pkgmgr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jbweber/anvil/internal/errdefs"
)

// State is the desired state of a set of packages.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// ParseState validates a state string.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StatePresent, StateAbsent:
		return State(s), nil
	default:
		return "", fmt.Errorf("%w: invalid state %q (must be present or absent)", errdefs.ErrConfiguration, s)
	}
}

// Outcome is the parsed result of one package-manager run.
type Outcome struct {
	// Changed is true when at least one package was installed or removed.
	Changed bool
	// Results holds one line per package action, sorted and deduplicated.
	Results []string
	// NotFound holds the manager lines reporting unavailable packages.
	NotFound []string
}

// Failed reports whether any requested package was not available.
func (o Outcome) Failed() bool {
	return len(o.NotFound) > 0
}

// Parser interprets the output of one package-manager family.
type Parser interface {
	// Name identifies the parser and its version, e.g. "rpm/v1".
	Name() string
	// Parse interprets output lines of a run for packages in state.
	Parse(lines []string, packages []string, state State) Outcome
}

// Driver describes how to drive one package-manager family.
type Driver struct {
	Family  string
	Install []string
	Remove  []string
	Parser  Parser
}

// Argv returns the command line that brings packages to state.
func (d Driver) Argv(state State, packages []string) ([]string, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("%w: no packages given", errdefs.ErrConfiguration)
	}

	var base []string
	switch state {
	case StatePresent:
		base = d.Install
	case StateAbsent:
		base = d.Remove
	default:
		return nil, fmt.Errorf("%w: invalid state %q", errdefs.ErrConfiguration, state)
	}

	argv := make([]string, 0, len(base)+len(packages))
	argv = append(argv, base...)
	argv = append(argv, packages...)
	return argv, nil
}

// resultSet collects result lines without duplicates.
type resultSet map[string]struct{}

func (r resultSet) add(line string) {
	line = strings.TrimSpace(line)
	if line != "" {
		r[line] = struct{}{}
	}
}

func (r resultSet) sorted() []string {
	out := make([]string, 0, len(r))
	for line := range r {
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}
