package guest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/pkgmgr"
	"github.com/jbweber/anvil/internal/session"
)

// Packages manages guest packages with the drivers of a pkgmgr.Registry.
type Packages struct {
	Registry *pkgmgr.Registry
}

// NewPackages returns a Packages using the default dnf, yum and apt drivers.
func NewPackages() *Packages {
	return &Packages{Registry: pkgmgr.DefaultRegistry()}
}

// Apply brings names to state using the guest's package manager.
//
// Data carries "results" (sorted, deduplicated action lines), "log" (raw
// manager output) and "manager". If any package was not available the
// call fails with a *PartialError wrapping ErrOperation whose Result still
// holds the successes.
func (p *Packages) Apply(s Session, names []string, state pkgmgr.State) (*Result, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one package name is required", errdefs.ErrConfiguration)
	}
	if _, err := pkgmgr.ParseState(string(state)); err != nil {
		return nil, err
	}
	app, err := s.Appliance()
	if err != nil {
		return nil, err
	}

	family, err := detectFamily(app)
	if err != nil {
		return nil, err
	}
	driver, ok := p.Registry.Lookup(family)
	if !ok {
		return nil, fmt.Errorf("%w: package manager %s is not supported (supported: %s)",
			errdefs.ErrNoSupportedManager, family, strings.Join(p.Registry.Families(), ", "))
	}

	argv, err := driver.Argv(state, names)
	if err != nil {
		return nil, err
	}
	out, err := app.Command(argv)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errdefs.ErrExecution, executionMessage(err))
	}

	lines := splitLines(strings.TrimSuffix(out, "\n"))
	outcome := driver.Parser.Parse(lines, names, state)

	res := &Result{
		Changed: outcome.Changed,
		Output:  strings.Join(lines, "\n"),
		Data: map[string]any{
			"results": outcome.Results,
			"log":     lines,
			"manager": family,
			"parser":  driver.Parser.Name(),
		},
	}
	if outcome.Failed() {
		return nil, &PartialError{
			Err:    fmt.Errorf("%w: %s", errdefs.ErrOperation, strings.Join(outcome.NotFound, "; ")),
			Result: res,
		}
	}
	return res, nil
}

// Query lists installed applications whose name matches pattern, a regular
// expression anchored at the start of the name, or "*" for all.
//
// Only the first root that reports applications is listed. Data "results"
// holds name-version-release-arch strings.
func (p *Packages) Query(s Session, pattern string) (*Result, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: list pattern is required", errdefs.ErrConfiguration)
	}
	var re *regexp.Regexp
	if pattern != "*" {
		var err error
		re, err = regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q: %v", errdefs.ErrConfiguration, pattern, err)
		}
	}
	app, err := s.Appliance()
	if err != nil {
		return nil, err
	}

	apps, err := installedApplications(app)
	if err != nil {
		return nil, err
	}

	var results []string
	for _, a := range apps {
		if re == nil || re.MatchString(a.Name) {
			results = append(results, a.String())
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: packages containing regular expression '%s' not found", errdefs.ErrNoMatch, pattern)
	}

	return &Result{
		Changed: false,
		Output:  strings.Join(results, "\n"),
		Data:    map[string]any{"results": results},
	}, nil
}

// detectFamily returns the first known package-management family among the
// mounted devices.
func detectFamily(app session.Appliance) (string, error) {
	devices, err := app.Mounts()
	if err != nil {
		return "", fmt.Errorf("%w: failed to list mounts: %v", errdefs.ErrOperation, err)
	}

	family := "unknown"
	for _, dev := range devices {
		f, err := app.InspectPackageManagement(dev)
		if err != nil {
			continue
		}
		if f != "" && f != "unknown" {
			family = f
			break
		}
	}
	if family == "unknown" {
		return "", fmt.Errorf("%w: package manager could not be detected", errdefs.ErrNoSupportedManager)
	}
	return family, nil
}

// installedApplications returns the applications of the first mounted
// device that reports any.
func installedApplications(app session.Appliance) ([]session.Application, error) {
	devices, err := app.Mounts()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list mounts: %v", errdefs.ErrOperation, err)
	}

	for _, dev := range devices {
		apps, err := app.InspectApplications(dev)
		if err != nil {
			continue
		}
		if len(apps) > 0 {
			return apps, nil
		}
	}
	return nil, nil
}
