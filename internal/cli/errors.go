package cli

import (
	"errors"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/lifecycle"
)

// Error codes for failures that carry no lifecycle code.
const (
	ErrCodeGeneric  = "ERROR"
	ErrCodeBadInput = "BAD_INPUT"
	ErrCodeDatabase = "DATABASE"
)

// errorCode classifies err for output. Compliance failures exit with
// ExitFailure; everything else is a command error.
func errorCode(err error) (string, int) {
	if code := lifecycle.CodeOf(err); code != "" {
		if code == lifecycle.ErrCodeComplianceFailed {
			return string(code), ExitFailure
		}
		return string(code), ExitCommandError
	}
	switch {
	case lifecycle.IsInvalidDimensions(err):
		return string(lifecycle.ErrCodeInvalidDimensions), ExitCommandError
	case errors.Is(err, domain.ErrNotFound):
		return string(lifecycle.ErrCodeNotFound), ExitCommandError
	case errors.Is(err, domain.ErrConflict):
		return string(lifecycle.ErrCodeConflict), ExitCommandError
	}
	return ErrCodeGeneric, ExitCommandError
}

// report writes err through f and returns the ExitError to exit with.
func report(f *OutputFormatter, err error) error {
	code, exit := errorCode(err)

	var details any
	if issues := lifecycle.IssuesOf(err); len(issues) > 0 {
		details = issues
	}
	_ = f.Error(code, err.Error(), details)

	exitErr := WrapExitError(exit, code, err)
	exitErr.Reported = true
	return exitErr
}

// reportCode writes a failure with an explicit code.
func reportCode(f *OutputFormatter, code string, exit int, err error) error {
	_ = f.Error(code, err.Error(), nil)
	exitErr := WrapExitError(exit, code, err)
	exitErr.Reported = true
	return exitErr
}
