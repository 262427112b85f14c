package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/scaffold/internal/domain"
	"github.com/roach88/scaffold/internal/lifecycle"
)

// Error codes beyond the lifecycle ones.
const (
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorConflict      = "CONFLICT"
	ErrorInternalError = "INTERNAL_ERROR"
)

// Response is the envelope of every API reply. It matches the CLI's JSON
// output so scripts can consume either.
type Response struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Status: "ok", Data: data})
}

func fail(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, Response{
		Status: "error",
		Error:  &APIError{Code: code, Message: message, Details: details},
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, ErrorBadRequest, message, nil)
}

// statusOf maps an error to an HTTP status and API error code.
func statusOf(err error) (int, string) {
	switch lifecycle.CodeOf(err) {
	case lifecycle.ErrCodeInvalidDimensions:
		return http.StatusBadRequest, string(lifecycle.ErrCodeInvalidDimensions)
	case lifecycle.ErrCodeNotFound:
		return http.StatusNotFound, string(lifecycle.ErrCodeNotFound)
	case lifecycle.ErrCodeComplianceFailed:
		return http.StatusUnprocessableEntity, string(lifecycle.ErrCodeComplianceFailed)
	case lifecycle.ErrCodeConflict:
		return http.StatusConflict, string(lifecycle.ErrCodeConflict)
	case lifecycle.ErrCodeRevisionsExhausted:
		return http.StatusConflict, string(lifecycle.ErrCodeRevisionsExhausted)
	}

	switch {
	case lifecycle.IsInvalidDimensions(err):
		return http.StatusBadRequest, string(lifecycle.ErrCodeInvalidDimensions)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrorConflict
	}
	return http.StatusInternalServerError, ErrorInternalError
}

// respondError writes err with the status statusOf picks. Compliance issues
// travel in details.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		fail(c, status, code, "internal error", nil)
		return
	}

	var details any
	if issues := lifecycle.IssuesOf(err); len(issues) > 0 {
		details = gin.H{"issues": issues}
	}
	fail(c, status, code, err.Error(), details)
}

// bindOptionalJSON decodes the request body into dst. It reports false
// without error when the body is empty.
func bindOptionalJSON(c *gin.Context, dst any) (bool, error) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return false, nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
