package supervisor

import (
	"errors"
	"fmt"
)

// ErrExecutableNotFound is returned by Start when none of the candidate
// locations holds the awim binary.
var ErrExecutableNotFound = errors.New("could not find awim binary in any candidate location")

// IncompatibleBinaryError reports a binary that exists but refused to
// execute, which on an immutable SteamOS-style base image almost always means
// a libc or architecture mismatch rather than a missing file.
type IncompatibleBinaryError struct {
	Path string
	Err  error
}

func (e *IncompatibleBinaryError) Error() string {
	return fmt.Sprintf("awim exists at %s but failed to start; likely an incompatible binary (libc/architecture mismatch), rebuild for the target image: %v", e.Path, e.Err)
}

func (e *IncompatibleBinaryError) Unwrap() error { return e.Err }

// LaunchError wraps any other OS-level spawn failure.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("OS error while starting awim: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// EarlyExitError reports a worker that exited before the startup grace window
// elapsed. Output carries whatever the worker managed to write.
type EarlyExitError struct {
	Code   int
	Output string
}

func (e *EarlyExitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("awim exited immediately with code %d: %s", e.Code, e.Output)
	}
	return fmt.Sprintf("awim exited immediately with code %d", e.Code)
}
