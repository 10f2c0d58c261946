package pkgmgr

import (
	"fmt"
	"strings"
)

// RPMParser parses dnf and yum output.
//
//	Verifying  : vim-enhanced-2:8.2.2637-20.el9.x86_64    1/1    changed
//	Package vim-enhanced-2:8.2... is already installed.          unchanged
//	No package foo available.                                    not found (yum)
//	No match for argument: foo                                   not found (dnf install)
//	No match for argument: foo                                   unchanged (dnf remove)
type RPMParser struct{}

func (RPMParser) Name() string { return "rpm/v1" }

func (RPMParser) Parse(lines []string, packages []string, state State) Outcome {
	var out Outcome
	results := resultSet{}
	notFound := resultSet{}
	nothingToDo := false

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.Contains(strings.ToLower(line), "no packages marked for removal"):
			results.add(trimmed)
			continue
		case strings.HasPrefix(trimmed, "Nothing to do"):
			nothingToDo = true
			continue
		}

		for _, pkg := range packages {
			if !strings.Contains(line, pkg) {
				continue
			}
			switch {
			case strings.Contains(line, "Verifying"):
				out.Changed = true
				invoked := pkg
				if fields := strings.Fields(line); len(fields) >= 3 {
					invoked = fields[2]
				}
				results.add(fmt.Sprintf("%s is %s", invoked, state))
			case strings.Contains(line, "already installed"):
				results.add(strings.ReplaceAll(trimmed, "Package ", ""))
			case strings.Contains(line, fmt.Sprintf("No package %s available.", pkg)):
				notFound.add(trimmed)
			case strings.Contains(line, "No match for argument: "+pkg):
				// dnf says the same thing when removing a package that is
				// not installed.
				if state == StateAbsent {
					results.add(trimmed)
				} else {
					notFound.add(trimmed)
				}
			}
		}
	}

	if len(results) == 0 && nothingToDo && len(notFound) == 0 {
		results.add("Nothing to do")
	}
	out.Results = results.sorted()
	if len(notFound) > 0 {
		out.NotFound = notFound.sorted()
	}
	return out
}
