package sdk

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeLoad indicates the SDK could not be loaded (gateway unreachable, bad URL)
	ErrTypeLoad ErrorType = iota
	// ErrTypeConfig indicates missing or invalid configuration (public key, order id, nonce)
	ErrTypeConfig
	// ErrTypeRejected indicates the SDK received the call and rejected it
	ErrTypeRejected
	// ErrTypeTransport indicates the call could not be delivered or its reply was lost
	ErrTypeTransport
	// ErrTypeProtocol indicates a malformed message from the SDK
	ErrTypeProtocol
	// ErrTypeInvalidArgument indicates the caller passed a value the SDK cannot accept
	ErrTypeInvalidArgument
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeLoad:
		return "Load Error"
	case ErrTypeConfig:
		return "Configuration Error"
	case ErrTypeRejected:
		return "Rejected"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeInvalidArgument:
		return "Invalid Argument"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinel errors for missing initialization values.
var (
	ErrMissingPublicKey = errors.New("public key is not set")
	ErrMissingOrderID   = errors.New("order id is not set")
	ErrMissingNonce     = errors.New("nonce is not set")

	// ErrClosed is returned by calls on an SDK handle whose connection has gone away.
	ErrClosed = errors.New("sdk connection closed")
)

// SDKError represents an error that occurred while driving the SDK
type SDKError struct {
	Type    ErrorType // Category of error
	Method  string    // SDK method involved (if any)
	Code    string    // SDK error code (for rejections)
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *SDKError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	if e.Method != "" {
		msg = e.Method + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SDKError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a load error
func NewLoadError(message string, err error) *SDKError {
	return &SDKError{
		Type:    ErrTypeLoad,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a configuration error from one of the sentinel errors
func NewConfigError(err error) *SDKError {
	return &SDKError{
		Type:    ErrTypeConfig,
		Method:  "initialiseOnlineSDK",
		Message: err.Error(),
		Err:     err,
	}
}

// NewRejectedError creates an error for a call the SDK refused
func NewRejectedError(method, code, message string) *SDKError {
	return &SDKError{
		Type:    ErrTypeRejected,
		Method:  method,
		Code:    code,
		Message: message,
	}
}

// NewTransportError creates an error for a call that could not be completed
func NewTransportError(method string, err error) *SDKError {
	return &SDKError{
		Type:    ErrTypeTransport,
		Method:  method,
		Message: "call did not complete",
		Err:     err,
	}
}

// NewProtocolError creates an error for an unreadable SDK message
func NewProtocolError(message string, err error) *SDKError {
	return &SDKError{
		Type:    ErrTypeProtocol,
		Message: message,
		Err:     err,
	}
}

func errorType(err error) (ErrorType, bool) {
	var sdkErr *SDKError
	if errors.As(err, &sdkErr) {
		return sdkErr.Type, true
	}
	return 0, false
}

// IsLoadError checks if an error is a load error
func IsLoadError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeLoad
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeConfig
}

// IsRejected checks if an error is an SDK rejection
func IsRejected(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeRejected
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeTransport
}

// Code returns the SDK error code carried by err, or fallback when there is none
func Code(err error, fallback string) string {
	var sdkErr *SDKError
	if errors.As(err, &sdkErr) && sdkErr.Code != "" {
		return sdkErr.Code
	}
	return fallback
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var sdkErr *SDKError
	if !errors.As(err, &sdkErr) {
		return err.Error()
	}

	switch sdkErr.Type {
	case ErrTypeLoad:
		return "Failed to load the payment SDK."
	case ErrTypeConfig:
		return "Checkout is not configured: " + sdkErr.Message
	case ErrTypeTransport:
		return "Lost contact with the payment SDK."
	default:
		return sdkErr.Message
	}
}
