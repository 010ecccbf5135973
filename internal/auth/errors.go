package auth

import (
	"errors"
	"fmt"
)

// FailureKind enumerates the distinct ways identity resolution can fail.
type FailureKind string

const (
	FailureMalformed            FailureKind = "TOKEN_MALFORMED"
	FailureBadSignature         FailureKind = "TOKEN_BAD_SIGNATURE"
	FailureExpired              FailureKind = "TOKEN_EXPIRED"
	FailureUnknownSubject       FailureKind = "TOKEN_UNKNOWN_SUBJECT"
	FailureRoleMismatch         FailureKind = "TOKEN_ROLE_MISMATCH"
	FailureRevoked              FailureKind = "TOKEN_REVOKED"
	FailureAuthenticationFailed FailureKind = "AUTHENTICATION_FAILED"
)

// Error is a typed validation outcome. It never carries detail that would
// reveal to a caller whether a subject exists.
type Error struct {
	Kind FailureKind
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind FailureKind, err error) *Error {
	return &Error{Kind: kind, err: err}
}

// AsError unwraps a typed auth failure from an error chain.
func AsError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsKind reports whether err is an auth failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	authErr, ok := AsError(err)
	return ok && authErr.Kind == kind
}
