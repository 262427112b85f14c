package lifecycle

import (
	"errors"
	"fmt"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/graph"
)

// Error is returned by every Service operation that fails for a reason the
// caller can act on.
//
// Error kinds:
//   - Invalid dimensions: rejected before any graph is built
//   - Not found: unknown model, or supersede with nothing to supersede
//   - Compliance failed: publication blocked, Issues hold the checker output
//   - Conflict: revision collisions outlived the retry budget
//   - Revisions exhausted: the job already sits at the terminal label
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// JobID identifies the affected job, when known.
	JobID string

	// ModelID identifies the affected model, when known.
	ModelID string

	// Issues are the compliance findings, verbatim.
	Issues []string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes lifecycle errors.
type ErrorCode string

const (
	// ErrCodeInvalidDimensions indicates non-positive or missing dimensions.
	ErrCodeInvalidDimensions ErrorCode = "INVALID_DIMENSIONS"

	// ErrCodeNotFound indicates a missing model or prior revision.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeComplianceFailed indicates the checker rejected the graph.
	ErrCodeComplianceFailed ErrorCode = "COMPLIANCE_FAILED"

	// ErrCodeConflict indicates revision assignment kept colliding.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeRevisionsExhausted indicates no label follows the latest one.
	ErrCodeRevisionsExhausted ErrorCode = "REVISIONS_EXHAUSTED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.ModelID != "":
		return fmt.Sprintf("%s: %s (model=%s)", e.Code, e.Message, e.ModelID)
	case e.JobID != "":
		return fmt.Sprintf("%s: %s (job=%s)", e.Code, e.Message, e.JobID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the lifecycle code of err, or "" if err is not a lifecycle
// error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsInvalidDimensions reports whether err rejects the input dimensions.
func IsInvalidDimensions(err error) bool {
	return CodeOf(err) == ErrCodeInvalidDimensions || errors.Is(err, graph.ErrInvalidDimensions)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound || errors.Is(err, domain.ErrNotFound)
}

// IsComplianceFailed reports whether err blocked a publication.
func IsComplianceFailed(err error) bool {
	return CodeOf(err) == ErrCodeComplianceFailed
}

// IsConflict reports whether err is a revision conflict. Exhausted revisions
// count as a conflict.
func IsConflict(err error) bool {
	switch CodeOf(err) {
	case ErrCodeConflict, ErrCodeRevisionsExhausted:
		return true
	}
	return errors.Is(err, domain.ErrConflict)
}

// IsRevisionsExhausted reports whether err was caused by a job at the
// terminal revision.
func IsRevisionsExhausted(err error) bool {
	return CodeOf(err) == ErrCodeRevisionsExhausted
}

// IssuesOf returns the compliance issues carried by err, if any.
func IssuesOf(err error) []string {
	var le *Error
	if errors.As(err, &le) {
		return le.Issues
	}
	return nil
}

func invalidDimensions(jobID string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidDimensions,
		Message: err.Error(),
		JobID:   jobID,
		Err:     err,
	}
}

func modelNotFound(modelID string, err error) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "model not found",
		ModelID: modelID,
		Err:     err,
	}
}

func nothingToSupersede(jobID string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "job has no model to supersede",
		JobID:   jobID,
		Err:     domain.ErrNotFound,
	}
}

func complianceFailed(modelID string, issues []string) *Error {
	return &Error{
		Code:    ErrCodeComplianceFailed,
		Message: fmt.Sprintf("compliance check failed with %d issue(s)", len(issues)),
		ModelID: modelID,
		Issues:  issues,
	}
}

func conflict(jobID string, attempts int, err error) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf("revision still conflicting after %d attempt(s)", attempts),
		JobID:   jobID,
		Err:     err,
	}
}

func revisionsExhausted(jobID, latest string) *Error {
	return &Error{
		Code:    ErrCodeRevisionsExhausted,
		Message: fmt.Sprintf("no revision follows %q", latest),
		JobID:   jobID,
		Err:     domain.ErrConflict,
	}
}
