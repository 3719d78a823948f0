package model

import (
	"errors"
	"fmt"
)

var (
	// ErrTraversal is returned when the traversal root is missing or unreadable.
	ErrTraversal = errors.New("traversal error")
	// ErrSubprocess marks a linter run that exited non-zero or could not complete.
	ErrSubprocess = errors.New("linter subprocess error")
	// ErrLinterUnavailable is returned when the linter executable cannot be resolved.
	ErrLinterUnavailable = errors.New("linter executable not available")
	// ErrDriverUnavailable is returned when the driver script cannot be loaded.
	ErrDriverUnavailable = errors.New("driver script not available")
	// ErrLintFailures is returned when at least one file did not pass.
	ErrLintFailures = errors.New("lint failures")
	// ErrDeserialization is returned for a geometry payload that is not valid JSON.
	ErrDeserialization = errors.New("malformed geometry JSON")
	// ErrConstruction is returned for valid JSON that does not describe a valid geometry.
	ErrConstruction = errors.New("invalid geometry")
	// ErrUnsupportedOperation is returned for an operation name outside the supported set.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// ArgumentError ties a failure to the positional argument that caused it.
type ArgumentError struct {
	Name string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}
