package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPError represents an HTTP error response.
type HTTPError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for an error.
// It maps error codes to appropriate HTTP status codes.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return codeToHTTPStatus(GetErrorCode(err))
}

// codeToHTTPStatus maps error codes to HTTP status codes.
func codeToHTTPStatus(code string) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeConfiguration:
		return http.StatusInternalServerError
	case CodeTransportNotConfigured, CodeClosed:
		return http.StatusServiceUnavailable
	case CodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTPError converts an error to an HTTPError.
func ToHTTPError(err error, traceID string) *HTTPError {
	if err == nil {
		return &HTTPError{
			Status:  http.StatusOK,
			Code:    CodeOK,
			Message: "success",
			TraceID: traceID,
		}
	}

	httpErr := &HTTPError{
		Status:  StatusCode(err),
		Code:    GetErrorCode(err),
		Message: err.Error(),
		TraceID: traceID,
		Details: make(map[string]string),
	}

	var (
		argErr       *InvalidArgumentError
		cfgErr       *ConfigurationError
		notConfigErr *TransportNotConfiguredError
		transportErr *TransportError
	)

	switch {
	case errors.As(err, &argErr):
		if argErr.Argument != "" {
			httpErr.Details["argument"] = argErr.Argument
		}
	case errors.As(err, &cfgErr):
		if cfgErr.Field != "" {
			httpErr.Details["field"] = cfgErr.Field
		}
	case errors.As(err, &notConfigErr):
		httpErr.Details["operation"] = notConfigErr.Operation
	case errors.As(err, &transportErr):
		httpErr.Details["operation"] = transportErr.Operation
		if transportErr.Channel != "" {
			httpErr.Details["channel"] = transportErr.Channel
		}
	}

	return httpErr
}

// WriteHTTPError writes an error response to an http.ResponseWriter.
func WriteHTTPError(w http.ResponseWriter, err error, traceID string) {
	httpErr := ToHTTPError(err, traceID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Status)
	json.NewEncoder(w).Encode(httpErr)
}
