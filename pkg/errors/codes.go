package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where the gateway surfaces them.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeInvalidArgument indicates the caller passed a malformed channel, handler or payload.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeConfiguration indicates a malformed or incomplete hub configuration.
	CodeConfiguration = "CONFIGURATION_ERROR"

	// CodeTransportNotConfigured indicates a transport operation was used before
	// a successful initialize.
	CodeTransportNotConfigured = "TRANSPORT_NOT_CONFIGURED"

	// CodeTransport indicates the underlying transport reported a failure.
	CodeTransport = "TRANSPORT_ERROR"

	// CodeClosed indicates the hub or transport has been closed.
	CodeClosed = "CLOSED"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"
)
