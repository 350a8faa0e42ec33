package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound              = "NOT_FOUND"
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
	CodeUnavailable           = "SERVICE_UNAVAILABLE"
	CodeSlotTaken             = "SLOT_TAKEN"
	CodeDoctorUnavailable     = "DOCTOR_UNAVAILABLE"
	CodeAlreadyCancelled      = "ALREADY_CANCELLED"
	CodeAlreadyCompleted      = "ALREADY_COMPLETED"
	CodeCannotCancelCompleted = "CANNOT_CANCEL_COMPLETED"
	CodeReconciliation        = "RECONCILIATION"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Unavailable reports a transient store or dependency failure. Callers may
// safely retry the same request.
func Unavailable(dependency string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable, please retry", dependency),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func SlotTaken(dateKey, slotTime string) *AppError {
	return &AppError{
		Code:       CodeSlotTaken,
		Message:    "This time slot has already been booked",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"slot_date": dateKey,
			"slot_time": slotTime,
		},
	}
}

func DoctorUnavailable() *AppError {
	return &AppError{
		Code:       CodeDoctorUnavailable,
		Message:    "Doctor is not currently accepting appointments",
		HTTPStatus: http.StatusConflict,
	}
}

func AlreadyCancelled() *AppError {
	return &AppError{
		Code:       CodeAlreadyCancelled,
		Message:    "Appointment is already cancelled",
		HTTPStatus: http.StatusConflict,
	}
}

func AlreadyCompleted() *AppError {
	return &AppError{
		Code:       CodeAlreadyCompleted,
		Message:    "Appointment is already completed",
		HTTPStatus: http.StatusConflict,
	}
}

func CannotCancelCompleted() *AppError {
	return &AppError{
		Code:       CodeCannotCancelCompleted,
		Message:    "Cannot cancel a completed appointment",
		HTTPStatus: http.StatusConflict,
	}
}

// Reconciliation reports a partial mutation: the slot reservation succeeded
// but the appointment record was not persisted and the reservation could not
// be rolled back. The slot is stuck until repaired out of band, so this must
// never be swallowed or reported as a plain internal error.
func Reconciliation(message string, err error) *AppError {
	return &AppError{
		Code:       CodeReconciliation,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
