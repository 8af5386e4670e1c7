package reservations

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodeNotFound             Code = "NOT_FOUND"
	CodeMaterialAvailable    Code = "MATERIAL_AVAILABLE"
	CodeDuplicateReservation Code = "DUPLICATE_RESERVATION"
	CodeConflict             Code = "CONFLICT"
	CodeInternal             Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func ErrMaterialAvailable(msg string) *APIError {
	return &APIError{Code: CodeMaterialAvailable, Message: msg}
}

func ErrDuplicateReservation(msg string) *APIError {
	return &APIError{Code: CodeDuplicateReservation, Message: msg}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeMaterialAvailable, CodeDuplicateReservation, CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}
