package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeUnauthenticated      = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeStorageFailure       = "STORAGE_FAILURE"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code, so
// errors.Is(err, ErrNotFound) matches any not-found error regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with the given message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// NewNotFoundError creates a not-found error with the given message.
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(ErrCodeNotFound, message)
}

// NewStorageError wraps a database or blob storage failure. The cause is kept
// for logging but never shown to clients.
func NewStorageError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    ErrCodeStorageFailure,
		Message: message,
		Err:     cause,
	}
}

// CodeOf returns the domain error code carried by err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// Common domain errors
var (
	ErrValidation           = NewDomainError(ErrCodeValidation, "invalid input")
	ErrUnauthenticated      = NewDomainError(ErrCodeUnauthenticated, "authentication required")
	ErrInvalidCredentials   = NewDomainError(ErrCodeInvalidCredentials, "invalid username or password")
	ErrNotFound             = NewDomainError(ErrCodeNotFound, "resource not found")
	ErrDrinkNotFound        = NewDomainError(ErrCodeNotFound, "drink not found")
	ErrRatingNotFound       = NewDomainError(ErrCodeNotFound, "rating not found")
	ErrAdminNotFound        = NewDomainError(ErrCodeNotFound, "admin not found")
	ErrPayloadTooLarge      = NewDomainError(ErrCodePayloadTooLarge, "image exceeds the 1 MB upload limit")
	ErrUnsupportedMediaType = NewDomainError(ErrCodeUnsupportedMediaType, "only jpeg, png and gif images are allowed")
	ErrStorageFailure       = NewDomainError(ErrCodeStorageFailure, "storage unavailable")
)
