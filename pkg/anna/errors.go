package anna

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConnection indicates the gateway could not be reached or answered
	// a ping or document fetch with an unexpected status
	ErrTypeConnection ErrorType = iota
	// ErrTypeNotFound indicates a required element is absent from a document
	ErrTypeNotFound
	// ErrTypeRuleNotFound indicates a named or tagged rule is missing
	ErrTypeRuleNotFound
	// ErrTypePresetNotFound indicates no legacy rule carries the requested preset
	ErrTypePresetNotFound
	// ErrTypeCommandFailed indicates a PUT was rejected by the gateway
	ErrTypeCommandFailed
	// ErrTypeParse indicates malformed XML or a non-numeric measurement
	ErrTypeParse
)

// NetworkErrorSubtype narrows down a connection failure
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	// NetworkErrorStatus means the transport worked but the status code was wrong
	NetworkErrorStatus
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "Connection Failure"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypeRuleNotFound:
		return "Rule Not Found"
	case ErrTypePresetNotFound:
		return "Preset Not Found"
	case ErrTypeCommandFailed:
		return "Command Failed"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// GatewayError is the error returned by every operation in this package.
type GatewayError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Body           string              // Response body of a rejected command
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific connection failure
	Retryable      bool                // Advisory: whether a caller may retry
}

// Sentinels for errors.Is. Only the Type is compared.
var (
	ErrConnection     = &GatewayError{Type: ErrTypeConnection}
	ErrNotFound       = &GatewayError{Type: ErrTypeNotFound}
	ErrRuleNotFound   = &GatewayError{Type: ErrTypeRuleNotFound}
	ErrPresetNotFound = &GatewayError{Type: ErrTypePresetNotFound}
	ErrCommandFailed  = &GatewayError{Type: ErrTypeCommandFailed}
	ErrParse          = &GatewayError{Type: ErrTypeParse}
)

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a GatewayError of the same type.
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	return ok && t.Type == e.Type
}

// ClassifyNetworkError analyzes a transport error and returns a connection
// failure with the most specific subtype it can determine
func ClassifyNetworkError(err error) *GatewayError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &GatewayError{
			Type:           ErrTypeConnection,
			Message:        "request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &GatewayError{
			Type:           ErrTypeConnection,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &GatewayError{
				Type:           ErrTypeConnection,
				Message:        "gateway refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &GatewayError{
				Type:           ErrTypeConnection,
				Message:        "host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &GatewayError{
				Type:           ErrTypeConnection,
				Message:        "network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &GatewayError{
		Type:           ErrTypeConnection,
		Message:        "network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Retryable:      true,
	}
}

// NewNetworkError creates a connection failure with automatic classification
func NewNetworkError(message string, err error) *GatewayError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &GatewayError{Type: ErrTypeConnection, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewStatusError creates a connection failure for an unexpected status code
func NewStatusError(statusCode int, message string) *GatewayError {
	return &GatewayError{
		Type:           ErrTypeConnection,
		Message:        message,
		StatusCode:     statusCode,
		NetworkSubtype: NetworkErrorStatus,
		Retryable:      statusCode >= 500,
	}
}

// NewNotFoundError creates an error for a missing document element
func NewNotFoundError(format string, args ...any) *GatewayError {
	return &GatewayError{Type: ErrTypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewRuleNotFoundError creates an error for a missing rule
func NewRuleNotFoundError(message string) *GatewayError {
	return &GatewayError{Type: ErrTypeRuleNotFound, Message: message}
}

// NewPresetNotFoundError creates an error for an unknown legacy preset
func NewPresetNotFoundError(preset string) *GatewayError {
	return &GatewayError{
		Type:    ErrTypePresetNotFound,
		Message: fmt.Sprintf("could not find preset %q", preset),
	}
}

// NewCommandError creates an error for a rejected PUT, keeping the response body
func NewCommandError(statusCode int, message string, body []byte) *GatewayError {
	return &GatewayError{
		Type:       ErrTypeCommandFailed,
		Message:    message,
		StatusCode: statusCode,
		Body:       string(body),
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *GatewayError {
	return &GatewayError{Type: ErrTypeParse, Message: message, Err: err}
}

func errorType(err error) (ErrorType, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Type, true
	}
	return 0, false
}

func isType(err error, want ErrorType) bool {
	t, ok := errorType(err)
	return ok && t == want
}

// IsConnectionError checks if an error is a connection failure
func IsConnectionError(err error) bool { return isType(err, ErrTypeConnection) }

// IsNotFound checks if an error is a missing-element error
func IsNotFound(err error) bool { return isType(err, ErrTypeNotFound) }

// IsRuleNotFound checks if an error is a missing-rule error
func IsRuleNotFound(err error) bool { return isType(err, ErrTypeRuleNotFound) }

// IsPresetNotFound checks if an error is an unknown-preset error
func IsPresetNotFound(err error) bool { return isType(err, ErrTypePresetNotFound) }

// IsCommandFailed checks if an error is a rejected command
func IsCommandFailed(err error) bool { return isType(err, ErrTypeCommandFailed) }

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool { return isType(err, ErrTypeParse) }

// IsRetryable reports the advisory retry flag. Unknown errors are not retryable.
func IsRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Retryable
	}
	return false
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) string {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch gwErr.Type {
	case ErrTypeConnection:
		return connectionHint(gwErr)

	case ErrTypeNotFound:
		return strings.Join([]string{
			"The gateway document is missing an expected element.",
			"Troubleshooting:",
			"  • Check that an Anna thermostat is paired with the gateway",
			"  • Older firmware may not report every sensor (e.g. outdoor temperature)",
			"  • Run with ANNA_LOG_LEVEL=debug to inspect the exchange",
		}, "\n")

	case ErrTypeRuleNotFound:
		return strings.Join([]string{
			"The gateway has no matching rule.",
			"Troubleshooting:",
			"  • Open the Anna app once so the gateway creates its preset rules",
			"  • A schedule must exist before the schedule mode can be read",
		}, "\n")

	case ErrTypePresetNotFound:
		return "The requested preset does not exist on this gateway. List presets with 'anna presets'."

	case ErrTypeCommandFailed:
		if gwErr.Body != "" {
			return fmt.Sprintf("The gateway rejected the command (HTTP %d):\n%s", gwErr.StatusCode, gwErr.Body)
		}
		return fmt.Sprintf("The gateway rejected the command (HTTP %d).", gwErr.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the gateway's response.",
			"This may indicate a firmware issue or incompatibility.",
			"Troubleshooting:",
			"  • Try rebooting the gateway",
			"  • Check the firmware version in the Anna app",
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

func connectionHint(gwErr *GatewayError) string {
	switch gwErr.NetworkSubtype {
	case NetworkErrorTimeout:
		return strings.Join([]string{
			"The gateway did not respond in time.",
			"Troubleshooting:",
			"  • Check that the gateway is powered on",
			"  • Try increasing --timeout",
		}, "\n")
	case NetworkErrorConnectionRefused:
		return strings.Join([]string{
			"The gateway refused the connection.",
			"Troubleshooting:",
			"  • Verify the port number (default is 80)",
			"  • The gateway web server may be restarting - wait a minute",
		}, "\n")
	case NetworkErrorDNS:
		return strings.Join([]string{
			"Could not resolve the gateway hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Run 'anna scan' to discover the gateway via mDNS",
		}, "\n")
	case NetworkErrorStatus:
		if gwErr.StatusCode == 401 {
			return strings.Join([]string{
				"Authentication failed.",
				"Troubleshooting:",
				"  • The username is 'smile'",
				"  • The password is the 8-character Smile ID on the gateway label",
			}, "\n")
		}
		return fmt.Sprintf("The gateway answered with unexpected HTTP status %d.", gwErr.StatusCode)
	default:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Verify the gateway is on the same network",
		}, "\n")
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return err.Error()
	}

	switch gwErr.Type {
	case ErrTypeConnection:
		switch gwErr.NetworkSubtype {
		case NetworkErrorTimeout:
			return "Gateway not responding (timeout)"
		case NetworkErrorConnectionRefused:
			return "Gateway refused connection"
		case NetworkErrorDNS:
			return "Cannot resolve gateway hostname"
		case NetworkErrorStatus:
			if gwErr.StatusCode == 401 {
				return "Authentication failed - check credentials"
			}
			return fmt.Sprintf("Unexpected gateway response (HTTP %d)", gwErr.StatusCode)
		default:
			return "Network error - check connection"
		}
	case ErrTypeCommandFailed:
		return fmt.Sprintf("Command rejected (HTTP %d)", gwErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse gateway response"
	default:
		return gwErr.Message
	}
}
