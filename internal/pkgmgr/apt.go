package pkgmgr

import (
	"fmt"
	"strings"
)

// APTParser parses apt-get output.
//
//	Unpacking vim (2:8.2.3995-1ubuntu2) ...          changed
//	Removing vim (2:8.2.3995-1ubuntu2) ...           changed
//	vim is already the newest version (2:8.2...).    unchanged
//	Package 'vim' is not installed, so not removed   unchanged
//	E: Unable to locate package foo                  not found
type APTParser struct{}

func (APTParser) Name() string { return "apt/v1" }

func (APTParser) Parse(lines []string, packages []string, state State) Outcome {
	var out Outcome
	results := resultSet{}
	notFound := resultSet{}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		for _, pkg := range packages {
			if !strings.Contains(line, pkg) {
				continue
			}
			switch {
			case strings.HasPrefix(trimmed, "Unpacking"), strings.HasPrefix(trimmed, "Removing"):
				out.Changed = true
				invoked := strings.TrimPrefix(strings.TrimPrefix(trimmed, "Unpacking"), "Removing")
				invoked = strings.TrimSpace(strings.TrimSuffix(invoked, "..."))
				results.add(fmt.Sprintf("%s is %s", invoked, state))
			case strings.Contains(line, "is already the newest version"),
				strings.Contains(line, "is not installed"):
				results.add(trimmed)
			case strings.Contains(line, "Unable to locate package "+pkg),
				strings.Contains(line, "has no installation candidate"):
				notFound.add(trimmed)
			}
		}
	}

	out.Results = results.sorted()
	if len(notFound) > 0 {
		out.NotFound = notFound.sorted()
	}
	return out
}
