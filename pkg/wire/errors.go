package wire

import (
	"errors"
	"fmt"
)

// ErrorKind tags the taxonomy of errors this package and its callers
// surface. Errors are never returned as untyped strings; each kind is
// carried by an *Error built with NewError.
type ErrorKind uint8

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindMalformedFrame
	ErrorKindAuthenticationFailed
	ErrorKindNewSessionFailed
	ErrorKindUnknownClass
	ErrorKindUnknownObject
	ErrorKindInvalidHandle
	ErrorKindAddressOutOfRange
	ErrorKindTransportError
	ErrorKindFeatureUnavailable
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindMalformedFrame:
		return "MalformedFrame"
	case ErrorKindAuthenticationFailed:
		return "AuthenticationFailed"
	case ErrorKindNewSessionFailed:
		return "NewSessionFailed"
	case ErrorKindUnknownClass:
		return "UnknownClass"
	case ErrorKindUnknownObject:
		return "UnknownObject"
	case ErrorKindInvalidHandle:
		return "InvalidHandle"
	case ErrorKindAddressOutOfRange:
		return "AddressOutOfRange"
	case ErrorKindTransportError:
		return "TransportError"
	case ErrorKindFeatureUnavailable:
		return "FeatureUnavailable"
	default:
		return "Unknown"
	}
}

// Error is a tagged protocol error.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// NewError builds a tagged error.
func NewError(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or ErrorKindUnknown if err is
// not (or does not wrap) a *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindUnknown
}
