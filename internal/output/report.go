package output

import (
	"errors"

	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/guest"
)

// Report is the caller-facing outcome of one operation: the changed and
// failed flags, a message on failure, and the operation's own fields.
type Report struct {
	// Task names the GuestTask that produced the report, if any.
	Task      string
	Image     string
	Changed   bool
	Failed    bool
	Msg       string
	ErrorKind string
	Data      map[string]any

	// SessionFailed is set when the error aborted the session itself,
	// e.g. the appliance never launched or a mount failed.
	SessionFailed bool
}

// NewReport builds a report from an operation result and error. A
// *guest.PartialError contributes its partial result. A result returned
// together with an error, e.g. a teardown failure after a successful
// operation, keeps its data and is marked failed.
func NewReport(image string, res *guest.Result, err error) *Report {
	r := &Report{Image: image}

	var partial *guest.PartialError
	if res == nil && errors.As(err, &partial) {
		res = partial.Result
	}
	if res != nil {
		r.Changed = res.Changed
		r.Data = res.Data
	}
	if err != nil {
		r.Failed = true
		r.Msg = err.Error()
		r.ErrorKind = errdefs.Kind(err)
		r.SessionFailed = errdefs.IsSessionFatal(err)
	}
	return r
}

// Fields flattens the report into a single map with the operation fields
// next to changed, failed, msg and error_kind. session_failed only appears
// when set.
func (r *Report) Fields() map[string]any {
	fields := make(map[string]any, len(r.Data)+7)
	for k, v := range r.Data {
		fields[k] = v
	}
	fields["changed"] = r.Changed
	fields["failed"] = r.Failed
	if r.Image != "" {
		fields["image"] = r.Image
	}
	if r.Task != "" {
		fields["task"] = r.Task
	}
	if r.Msg != "" {
		fields["msg"] = r.Msg
	}
	if r.ErrorKind != "" {
		fields["error_kind"] = r.ErrorKind
	}
	if r.SessionFailed {
		fields["session_failed"] = true
	}
	return fields
}
