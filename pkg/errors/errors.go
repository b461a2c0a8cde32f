package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for quick checks
var (
	// ErrAlreadyInitialized is returned when Initialize is called on a hub
	// that already has a connected transport.
	ErrAlreadyInitialized = errors.New("hub already initialized")

	// ErrClosed is returned when operating on a closed transport.
	ErrClosed = errors.New("closed")

	// ErrMissingTransporter is the cause attached to stub transport operations.
	ErrMissingTransporter = errors.New("missing transporter")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// ConfigurationError represents a malformed or incomplete hub configuration,
// including a transporter that lacks one of its operations.
type ConfigurationError struct {
	*BaseError
	Field string
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{
		BaseError: &BaseError{
			code:    CodeConfiguration,
			message: message,
		},
		Field: field,
	}
}

// WithCause attaches an underlying cause.
func (e *ConfigurationError) WithCause(err error) *ConfigurationError {
	e.cause = err
	return e
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := e.message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.message)
	}
	if e.cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", msg, e.cause)
	}
	return fmt.Sprintf("configuration error: %s", msg)
}

// TransportNotConfiguredError is returned by the stub transport operations
// that stand in until a transporter has been bound.
type TransportNotConfiguredError struct {
	*BaseError
	Operation string
}

// NewTransportNotConfiguredError creates an error naming the missing operation.
func NewTransportNotConfiguredError(operation string) *TransportNotConfiguredError {
	return &TransportNotConfiguredError{
		BaseError: &BaseError{
			code:    CodeTransportNotConfigured,
			message: fmt.Sprintf("no %s function declared", operation),
			cause:   ErrMissingTransporter,
		},
		Operation: operation,
	}
}

// Error implements the error interface.
func (e *TransportNotConfiguredError) Error() string {
	return fmt.Sprintf("missing transporter: no %s function declared", e.Operation)
}

// InvalidArgumentError represents a malformed argument on a public call.
type InvalidArgumentError struct {
	*BaseError
	Argument string
}

// NewInvalidArgumentError creates a new invalid argument error.
func NewInvalidArgumentError(argument, message string) *InvalidArgumentError {
	return &InvalidArgumentError{
		BaseError: &BaseError{
			code:    CodeInvalidArgument,
			message: message,
		},
		Argument: argument,
	}
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Argument != "" {
		return fmt.Sprintf("invalid argument: %s: %s", e.Argument, e.message)
	}
	return fmt.Sprintf("invalid argument: %s", e.message)
}

// TransportError wraps a failure reported by the underlying transport.
type TransportError struct {
	*BaseError
	Operation string
	Channel   string
}

// NewTransportError wraps err as a transport failure of the given operation.
func NewTransportError(operation, channel string, err error) *TransportError {
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransport,
			message: fmt.Sprintf("transport %s failed", operation),
			cause:   err,
		},
		Operation: operation,
		Channel:   channel,
	}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("transport %s %q failed: %v", e.Operation, e.Channel, e.cause)
	}
	return fmt.Sprintf("transport %s failed: %v", e.Operation, e.cause)
}
