package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when the daemon socket does not exist.
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the daemon socket refuses the
	// connection for lack of permissions.
	ErrPermissionDenied = errors.New("permission denied")
)
