package output

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct{}

// FormatReport formats a report as an indented JSON object.
func (f *JSONFormatter) FormatReport(r *Report) (string, error) {
	data, err := json.MarshalIndent(r.Fields(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
