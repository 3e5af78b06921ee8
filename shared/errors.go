package shared

import (
	"errors"
	"net/http"
)

// AppError carries the HTTP status and envelope payload for an error that
// should reach the client as-is.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(status int, err error, message string, data interface{}) *AppError {
	return &AppError{StatusCode: status, Message: message, Data: data, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, err, message, nil)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(http.StatusUnauthorized, err, message, nil)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, err, message, nil)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, err, message, nil)
}

func NewTooManyRequestsError(err error, message string, data interface{}) *AppError {
	return newAppError(http.StatusTooManyRequests, err, message, data)
}

func NewServiceUnavailableError(err error, message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, err, message, nil)
}

func NewInternalError(err error, message string) *AppError {
	if message == "" {
		message = "Internal Server Error"
	}
	return newAppError(http.StatusInternalServerError, err, message, nil)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
