package services

import (
	"net/http"

	"emergency-response/internal/models"
)

// Error kinds surfaced by the chat proxy. Handlers map each one to a status
// code and a {error, details} body.

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// BackendUnreachableError covers connection failures, timeouts and non-2xx
// answers from the completion backend.
type BackendUnreachableError struct {
	Message string
	Details string
}

func (e *BackendUnreachableError) Error() string { return e.Message + ": " + e.Details }

type InternalError struct {
	Message string
	Details string
}

func (e *InternalError) Error() string { return e.Message + ": " + e.Details }

// transportError marks a failure to complete the round trip with a backend,
// as opposed to a failure to make sense of its answer.
type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// ToErrorResponse maps an error kind to its HTTP status and JSON body.
// Unknown errors are reported as internal failures.
func ToErrorResponse(err error) (int, models.ErrorResponse) {
	switch e := err.(type) {
	case *UnauthorizedError:
		return http.StatusUnauthorized, models.ErrorResponse{Error: e.Message}
	case *ValidationError:
		return http.StatusBadRequest, models.ErrorResponse{Error: e.Message}
	case *BackendUnreachableError:
		return http.StatusBadGateway, models.ErrorResponse{Error: e.Message, Details: e.Details}
	case *InternalError:
		return http.StatusInternalServerError, models.ErrorResponse{Error: e.Message, Details: e.Details}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{Error: unexpectedErrorMessage, Details: err.Error()}
	}
}
