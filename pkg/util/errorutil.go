package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes shared by the service and transport layers.
const (
	CodeTokenMalformed         = "TOKEN_MALFORMED"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenInvalidSignature  = "TOKEN_INVALID_SIGNATURE"
	CodeUnknownSubject         = "UNKNOWN_SUBJECT"
	CodeAuthenticationRejected = "AUTHENTICATION_REJECTED"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidID              = "INVALID_ID"
	CodePersistence            = "PERSISTENCE_ERROR"
	CodeRemoteUnauthorized     = "REMOTE_UNAUTHORIZED"
	CodeRemoteNotFound         = "REMOTE_NOT_FOUND"
	CodeRemoteOther            = "REMOTE_ERROR"
	CodeValidation             = "VALIDATION_FAILED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeConflict               = "CONFLICT"
	CodeInternal               = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidID reports a store-level inconsistency for the given identifier.
func NewInvalidID(id int64, err error) error {
	return &DomainError{
		Code:       CodeInvalidID,
		Message:    fmt.Sprintf("invalid id: %d", id),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"id": id},
		Err:        err,
	}
}

// NewPersistenceError wraps a store failure while keeping the cause reachable.
func NewPersistenceError(err error) error {
	return &DomainError{
		Code:       CodePersistence,
		Message:    "something went wrong please check then try again",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewRemoteUnauthorized(err error) error {
	return &DomainError{
		Code:       CodeRemoteUnauthorized,
		Message:    "unauthorized access to customer list",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewRemoteNotFound(err error) error {
	return &DomainError{
		Code:       CodeRemoteNotFound,
		Message:    "customer list not found",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewRemoteError passes through any other upstream status.
func NewRemoteError(status int, err error) error {
	return &DomainError{
		Code:       CodeRemoteOther,
		Message:    "remote customer list request failed",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"upstream_status": status},
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// FromStatus builds a DomainError for a bare transport status and message.
func FromStatus(status int, message string) *DomainError {
	code := CodeInternal
	switch status {
	case http.StatusBadRequest:
		code = CodeValidation
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusConflict:
		code = CodeConflict
	}
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}
