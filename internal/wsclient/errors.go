package wsclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error types for client operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConfiguration indicates invalid or missing context fields, or a nil argument
	ErrTypeConfiguration ErrorType = iota
	// ErrTypeAuthentication indicates a failed login (I/O, non-200, missing cookie)
	ErrTypeAuthentication
	// ErrTypeConnection indicates an upgrade failure not resolved by one re-login
	ErrTypeConnection
	// ErrTypeSend indicates an I/O failure while writing a message
	ErrTypeSend
	// ErrTypeState indicates a contract violation (send before connect, builder reuse, start after stop)
	ErrTypeState
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConfiguration:
		return "Configuration Error"
	case ErrTypeAuthentication:
		return "Authentication Error"
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeSend:
		return "Send Error"
	case ErrTypeState:
		return "State Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ClientError represents an error raised by the messaging client
type ClientError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Endpoint   string    // Endpoint the error relates to (if known)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *ClientError {
	return &ClientError{
		Type:    ErrTypeConfiguration,
		Message: message,
	}
}

// NewAuthenticationError creates an authentication error
func NewAuthenticationError(message string, err error) *ClientError {
	return &ClientError{
		Type:    ErrTypeAuthentication,
		Message: message,
		Err:     err,
	}
}

// NewLoginStatusError creates an authentication error for a non-200 login response
func NewLoginStatusError(statusCode int, endpoint string) *ClientError {
	return &ClientError{
		Type:       ErrTypeAuthentication,
		Message:    fmt.Sprintf("login request returned status %d while %d was expected", statusCode, http.StatusOK),
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

// NewConnectionError creates a connection error
func NewConnectionError(message string, endpoint string, err error) *ClientError {
	ce := &ClientError{
		Type:     ErrTypeConnection,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
	var upgradeErr *UpgradeError
	if errors.As(err, &upgradeErr) {
		ce.StatusCode = upgradeErr.StatusCode
	}
	return ce
}

// NewSendError creates a send error
func NewSendError(message string, endpoint string, err error) *ClientError {
	return &ClientError{
		Type:     ErrTypeSend,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

// NewStateError creates a state error
func NewStateError(message string) *ClientError {
	return &ClientError{
		Type:    ErrTypeState,
		Message: message,
	}
}

func isType(err error, t ErrorType) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return isType(err, ErrTypeConfiguration)
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	return isType(err, ErrTypeAuthentication)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return isType(err, ErrTypeConnection)
}

// IsSendError checks if an error is a send error
func IsSendError(err error) bool {
	return isType(err, ErrTypeSend)
}

// IsStateError checks if an error is a state error
func IsStateError(err error) bool {
	return isType(err, ErrTypeState)
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) []string {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return []string{"An unexpected error occurred. Please try again."}
	}

	switch ce.Type {
	case ErrTypeConfiguration:
		return []string{
			"Check the endpoint URL uses the ws:// or wss:// scheme",
			"Make sure a client ID is configured",
			"Run 'octanews config init' to create a starter configuration",
		}

	case ErrTypeAuthentication:
		if ce.StatusCode == http.StatusUnauthorized {
			return []string{
				"The endpoint rejected the client credentials",
				"Verify the client ID and secret",
				"Check that the API access key has not been revoked",
			}
		}
		var certErr *tls.CertificateVerificationError
		if errors.As(err, &certErr) {
			return []string{
				"The endpoint certificate is not trusted",
				"Install the issuing CA, or use --insecure for a local simulator",
			}
		}
		return []string{
			"The login request to /authentication/sign_in did not succeed",
			"Check that the endpoint host is reachable",
			"If a proxy is required, verify the proxy URL and credentials",
		}

	case ErrTypeConnection:
		hint := []string{"The WebSocket upgrade did not succeed"}
		if ce.StatusCode != 0 {
			hint = append(hint, fmt.Sprintf("The endpoint answered the upgrade with HTTP %d", ce.StatusCode))
		}
		return append(hint,
			"Verify the messaging path in the endpoint URL",
			"Check that custom headers do not override WebSocket handshake headers",
		)

	case ErrTypeSend:
		return []string{
			"The session dropped while the message was being written",
			"The keep-alive loop reconnects automatically; retry the send shortly",
		}

	case ErrTypeState:
		if ce.Message == "" {
			return []string{"The client was used outside of its lifecycle"}
		}
		return []string{strings.ToUpper(ce.Message[:1]) + ce.Message[1:]}

	default:
		return []string{"Please check the error message for details."}
	}
}
