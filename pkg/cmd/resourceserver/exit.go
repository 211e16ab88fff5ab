package resourceserver

import (
	"errors"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// DeniedExitCode is returned when the user authenticated but may not log in.
const DeniedExitCode = 3

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code for the error a command returned.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

func withExitCode(err error) error {
	var denied api.AuthorizationDeniedError
	if errors.As(err, &denied) {
		return &ExitError{Code: DeniedExitCode, Err: err}
	}
	return err
}
