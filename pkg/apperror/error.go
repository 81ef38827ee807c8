package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies where in the submission pipeline an error originated
type Kind string

const (
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
	KindDispatch   Kind = "dispatch"
	KindInternal   Kind = "internal"
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    KindInternal,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return Validation(message)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message, nil)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}

// Validation is a user-correctable rejection; the message is shown to the caller verbatim
func Validation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message, Kind: KindValidation}
}

// Storage wraps a disk failure behind a generic message
func Storage(message string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message, Kind: KindStorage, Err: err}
}

// Dispatch wraps an email provider failure behind a generic message
func Dispatch(message string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message, Kind: KindDispatch, Err: err}
}

// KindOf reports the kind of the first AppError in err's chain
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
