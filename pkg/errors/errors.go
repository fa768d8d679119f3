package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Entity  string `json:"entity,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors covering the scheduling engine taxonomy.
var (
	ErrInvalidInput       = New("INVALID_INPUT", http.StatusBadRequest, "invalid input")
	ErrInfeasible         = New("INFEASIBLE_WITHIN_BUDGET", http.StatusUnprocessableEntity, "no feasible schedule found within budget")
	ErrNoCertifiedTeacher = New("NO_CERTIFIED_TEACHER", http.StatusUnprocessableEntity, "no certified teacher available")
	ErrTeachersAtCapacity = New("TEACHERS_AT_CAPACITY", http.StatusUnprocessableEntity, "all certified teachers are at capacity")
	ErrInsufficientRooms  = New("INSUFFICIENT_ROOMS", http.StatusUnprocessableEntity, "room supply cannot meet demand")
	ErrCriticalConflicts  = New("SCHEDULE_HAS_CRITICAL_CONFLICTS", http.StatusConflict, "schedule has critical conflicts")
	ErrScheduleNotFound   = New("SCHEDULE_NOT_FOUND", http.StatusNotFound, "schedule not found")
	ErrScheduleImmutable  = New("SCHEDULE_IMMUTABLE", http.StatusConflict, "archived schedules are immutable")
	ErrCancelled          = New("CANCELLED", http.StatusRequestTimeout, "operation cancelled")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrInternal           = New("INTERNAL", http.StatusInternalServerError, "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithEntity returns a copy of the error referencing the affected entity.
func WithEntity(err *Error, entity string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Entity = entity
	return &clone
}
