// Package errdefs defines the error taxonomy shared by the session engine,
// the guest operations and the CLI.
//
// Every failure is one of the sentinel errors below, wrapped with context:
//
//	return fmt.Errorf("%w: %s", errdefs.ErrImageNotFound, path)
//
// Callers branch with errors.Is. Kind returns the stable name reported to
// automation callers as error_kind.
package errdefs

import "errors"

// Invocation errors. The caller must fix the invocation; never retried.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrImageInUse    = errors.New("image is in use by a running domain")
)

// Session errors. Fatal to the whole session.
var (
	ErrBackendUnavailable   = errors.New("disk image backend unavailable")
	ErrImageNotFound        = errors.New("could not find image")
	ErrLaunchFailure        = errors.New("could not launch appliance")
	ErrNoRootsFound         = errors.New("no operating system roots found")
	ErrNoMountpointDetected = errors.New("no mountpoint detected")
	ErrMountFailure         = errors.New("mount failed")
	ErrMountConflict        = errors.New("mount conflict")
	ErrNotMounted           = errors.New("session is not mounted")
	ErrTeardown             = errors.New("teardown failed")
)

// Operation errors. Fatal to the requested operation; teardown still runs.
var (
	ErrExecution            = errors.New("execution failed")
	ErrIsDirectoryOrSymlink = errors.New("source is a directory or symlink")
	ErrDownload             = errors.New("download failed")
	ErrNoSupportedManager   = errors.New("no supported package manager")
	ErrNoMatch              = errors.New("no match")
	ErrOperation            = errors.New("operation failed")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrConfiguration, "ConfigurationError"},
	{ErrImageInUse, "ImageInUse"},
	{ErrBackendUnavailable, "BackendUnavailable"},
	{ErrImageNotFound, "ImageNotFound"},
	{ErrLaunchFailure, "LaunchFailure"},
	{ErrNoRootsFound, "NoRootsFound"},
	{ErrNoMountpointDetected, "NoMountpointDetected"},
	{ErrMountFailure, "MountFailure"},
	{ErrMountConflict, "MountConflict"},
	{ErrNotMounted, "NotMounted"},
	{ErrTeardown, "TeardownFailure"},
	{ErrExecution, "ExecutionFailure"},
	{ErrIsDirectoryOrSymlink, "IsDirectoryOrSymlink"},
	{ErrDownload, "DownloadFailure"},
	{ErrNoSupportedManager, "NoSupportedManager"},
	{ErrNoMatch, "NoMatch"},
	{ErrOperation, "OperationFailure"},
}

// Kind returns the taxonomy name of err, or "" for nil and "InternalError"
// for errors outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "InternalError"
}

// IsSessionFatal reports whether err aborts the whole session rather than a
// single operation.
func IsSessionFatal(err error) bool {
	for _, e := range []error{
		ErrBackendUnavailable, ErrImageNotFound, ErrLaunchFailure, ErrNoRootsFound,
		ErrNoMountpointDetected, ErrMountFailure, ErrMountConflict,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
