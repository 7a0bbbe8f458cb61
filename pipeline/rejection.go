package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// Rejection is a structured "this request could not be handled" outcome:
// a status code plus a human-readable cause. It is an ordinary error value,
// so handlers return it through the error result and callers can inspect it
// with errors.As.
type Rejection struct {
	Status  int
	Message string
	Cause   error
}

// Error implements the error interface
func (r *Rejection) Error() string {
	if r.Cause != nil {
		return fmt.Sprintf("%s: %v", r.Message, r.Cause)
	}
	return r.Message
}

// Unwrap implements errors.Unwrap
func (r *Rejection) Unwrap() error {
	return r.Cause
}

// Reject creates a rejection with the given status code and message
func Reject(status int, message string) *Rejection {
	return &Rejection{Status: status, Message: message}
}

// RejectWith creates a rejection wrapping an underlying cause
func RejectWith(status int, message string, cause error) *Rejection {
	return &Rejection{Status: status, Message: message, Cause: cause}
}

// NotFound creates a 404 rejection
func NotFound(message string) *Rejection {
	if message == "" {
		message = "resource not found"
	}
	return Reject(http.StatusNotFound, message)
}

// Internal creates a 500 rejection
func Internal(message string) *Rejection {
	if message == "" {
		message = "internal server error"
	}
	return Reject(http.StatusInternalServerError, message)
}

// RejectionOf projects any error to a rejection view. A *Rejection anywhere
// in the chain is returned as-is; other errors read as internal errors.
// The original error value is never replaced on the propagation path, this
// is a read-only projection for status and cause reporting.
func RejectionOf(err error) *Rejection {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej
	}
	return &Rejection{
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		Cause:   err,
	}
}
