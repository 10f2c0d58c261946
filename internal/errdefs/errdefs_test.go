package errdefs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "bare sentinel", err: ErrNoRootsFound, want: "NoRootsFound"},
		{name: "wrapped sentinel", err: fmt.Errorf("%w: /tmp/missing.qcow2", ErrImageNotFound), want: "ImageNotFound"},
		{name: "double wrapped", err: fmt.Errorf("run: %w", fmt.Errorf("%w: boom", ErrExecution)), want: "ExecutionFailure"},
		{name: "unknown", err: errors.New("something else"), want: "InternalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSessionFatal(t *testing.T) {
	if !IsSessionFatal(fmt.Errorf("%w: sda1", ErrMountFailure)) {
		t.Error("mount failure should be session fatal")
	}
	if IsSessionFatal(fmt.Errorf("%w: vim", ErrNoMatch)) {
		t.Error("no match should not be session fatal")
	}
}
