package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNoJobs        = errors.New("fetch tracks first")
	ErrBusy          = errors.New("another operation is already running")
	ErrNotConfigured = errors.New("spotify client not initialized, configure the api keys first")
)

// InvalidInputError reports user input that cannot be acted on, such as a
// playlist URL without a playlist identifier.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Input == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Input)
}

// UpstreamError wraps a transport or auth failure from a remote service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
