package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats reports as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatReport writes a summary row followed by one row per operation
// field. List fields continue on the following rows.
func (f *TableFormatter) FormatReport(r *Report) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "IMAGE\tCHANGED\tFAILED\tKIND")
	}
	_, _ = fmt.Fprintf(w, "%s\t%t\t%t\t%s\n", dash(r.Image), r.Changed, r.Failed, dash(r.ErrorKind))
	_ = w.Flush()

	if r.Msg != "" {
		_, _ = fmt.Fprintf(&buf, "\n%s\n", r.Msg)
	}

	if len(r.Data) == 0 {
		return buf.String(), nil
	}

	buf.WriteString("\n")
	w = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	}
	for _, key := range sortedKeys(r.Data) {
		// stdout_lines repeats stdout.
		if base, ok := strings.CutSuffix(key, "_lines"); ok {
			if _, dup := r.Data[base]; dup {
				continue
			}
		}
		switch v := r.Data[key].(type) {
		case []string:
			if len(v) == 0 {
				_, _ = fmt.Fprintf(w, "%s\t-\n", key)
			}
			for i, item := range v {
				label := ""
				if i == 0 {
					label = key
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", label, item)
			}
		case string:
			// Multi-line values such as stdout are shown in full.
			lines := strings.Split(v, "\n")
			for i, line := range lines {
				label := ""
				if i == 0 {
					label = key
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", label, dash(line))
			}
		default:
			_, _ = fmt.Fprintf(w, "%s\t%v\n", key, v)
		}
	}
	_ = w.Flush()

	return buf.String(), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
