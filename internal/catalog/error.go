package catalog

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeHasActiveLoans  Code = "HAS_ACTIVE_LOANS"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	ActiveLoans int    `json:"active_loans,omitempty"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

// ErrHasActiveLoans carries the outstanding loan count that blocks deletion.
func ErrHasActiveLoans(n int) *APIError {
	return &APIError{
		Code:        CodeHasActiveLoans,
		Message:     fmt.Sprintf("material has %d active loans", n),
		ActiveLoans: n,
	}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict, CodeHasActiveLoans:
			return 409
		default:
			return 500
		}
	}
	return 500
}
