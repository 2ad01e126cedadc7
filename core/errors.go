package core

import "github.com/pkg/errors"

// ErrInvalidOrExpiredCode is returned for any OTP failure; wrong, lapsed and never-issued codes are not told apart.
var ErrInvalidOrExpiredCode = errors.New("Invalid or expired OTP")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError reports an address that is reserved or locked to another role.
type ConflictError struct {
	Message string
}

func NewConflictError(msg string) error {
	return &ConflictError{Message: msg}
}

func (err ConflictError) Error() string { return err.Message }

type NotFoundError struct {
	Message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{Message: msg}
}

func (err NotFoundError) Error() string { return err.Message }

// AuthenticationError covers bad passwords and missing, expired or invalid tokens.
type AuthenticationError struct {
	Message string
}

func NewAuthenticationError(msg string) error {
	return &AuthenticationError{Message: msg}
}

func (err AuthenticationError) Error() string { return err.Message }

type ForbiddenError struct {
	Message string
}

func NewForbiddenError(msg string) error {
	return &ForbiddenError{Message: msg}
}

func (err ForbiddenError) Error() string { return err.Message }

// DeliveryError is returned when a notification could not be handed to the mail provider.
type DeliveryError struct {
	Address string
	Err     error
}

func NewDeliveryError(address string, err error) error {
	return &DeliveryError{Address: address, Err: err}
}

func (err DeliveryError) Error() string {
	if err.Err == nil {
		return "delivering to " + err.Address
	}
	return "delivering to " + err.Address + ": " + err.Err.Error()
}

func (err DeliveryError) Unwrap() error { return err.Err }

// StoreError wraps a persistence failure. It fails the request, never the process.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (err StoreError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err StoreError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsAuthentication(err error) bool {
	_, ok := errors.Cause(err).(*AuthenticationError)
	return ok
}

func IsDelivery(err error) bool {
	_, ok := errors.Cause(err).(*DeliveryError)
	return ok
}
