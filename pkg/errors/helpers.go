package errors

import "errors"

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}

	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsTransportNotConfigured checks if an error came from an unbound transport stub.
func IsTransportNotConfigured(err error) bool {
	if err == nil {
		return false
	}

	var tnc *TransportNotConfiguredError
	return errors.As(err, &tnc) || errors.Is(err, ErrMissingTransporter)
}

// IsInvalidArgument checks if an error is an invalid argument error.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}

	var argErr *InvalidArgumentError
	return errors.As(err, &argErr)
}

// IsTransport checks if an error wraps a transport failure.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}

	var tErr *TransportError
	return errors.As(err, &tErr)
}

// IsClosed checks if an error indicates a closed hub or transport.
func IsClosed(err error) bool {
	return err != nil && errors.Is(err, ErrClosed)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	switch {
	case errors.Is(err, ErrAlreadyInitialized):
		return CodeConfiguration
	case IsClosed(err):
		return CodeClosed
	default:
		return CodeInternal
	}
}
