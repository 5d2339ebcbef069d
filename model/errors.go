package model

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
// Callers should branch on Kind rather than matching error strings.
type Kind string

const (
	// KindConfig: missing or malformed configuration or deployment record.
	KindConfig Kind = "Config"
	// KindValidation: bad caller input, rejected before any network call.
	KindValidation Kind = "Validation"
	// KindNotFound: the content store does not know the address.
	KindNotFound Kind = "NotFound"
	// KindTokenNotFound: the contract reverted a read for the token id.
	KindTokenNotFound Kind = "TokenNotFound"
	// KindMalformedData: stored bytes are not what the caller expected (e.g. invalid JSON).
	KindMalformedData Kind = "MalformedData"
	// KindUnconfirmedMint: a mint transaction was mined but carried no Transfer event.
	// Funds may have been spent; never retry blindly.
	KindUnconfirmedMint Kind = "UnconfirmedMint"
)

// Error is the structured error type shared by every pixelz package.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
