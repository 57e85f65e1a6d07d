package service

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Error codes carried on service errors. The HTTP layer maps each to a status.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeConflict       = "CONFLICT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeExpired        = "EXPIRED"
	CodeDispatchFailed = "DISPATCH_FAILED"
	CodeInternal       = "INTERNAL"
)

// ErrorCode returns the service code of err, or CodeInternal for errors that
// did not originate from this package.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return CodeInternal
	}
	code, _ := any(oopsErr.Code()).(string)
	if code == "" {
		return CodeInternal
	}
	return code
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorCode(err)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
