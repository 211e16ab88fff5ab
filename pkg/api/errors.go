package api

import "fmt"

// AuthorizationDeniedError must be raised by the authorization pipeline to
// signal that even though authentication was successful, the permission
// lookup denied access.
//
// Calls to Error() will be passed directly to the wrapped error.
type AuthorizationDeniedError struct {
	identity RemoteIdentity
	error
}

// NewAuthorizationDeniedError wraps the given error in an
// AuthorizationDeniedError type, which exposes the given identity.
func NewAuthorizationDeniedError(identity RemoteIdentity, err error) AuthorizationDeniedError {
	return AuthorizationDeniedError{
		identity: identity,
		error:    err,
	}
}

// Identity returns identity information relative to a denied access attempt.
func (e AuthorizationDeniedError) Identity() RemoteIdentity { return e.identity }

// Unwrap returns the underlying error to satisfy errors.As() and errors.Is().
func (e AuthorizationDeniedError) Unwrap() error { return e.error }

// AuthorizationFailedError can be raised by the authorization pipeline to
// return information about identity, when a runtime error occurs while
// identity information is already available.
//
// Calls to Error() will be passed directly to the wrapped error.
type AuthorizationFailedError struct {
	identity RemoteIdentity
	error
}

// NewAuthorizationFailedError wraps the given error in an
// AuthorizationFailedError type, which exposes the given identity.
func NewAuthorizationFailedError(identity RemoteIdentity, err error) AuthorizationFailedError {
	return AuthorizationFailedError{
		identity: identity,
		error:    err,
	}
}

// Identity returns identity information relative to a failed access attempt.
func (e AuthorizationFailedError) Identity() RemoteIdentity { return e.identity }

// Unwrap returns the underlying error to satisfy errors.As() and errors.Is().
func (e AuthorizationFailedError) Unwrap() error { return e.error }

// IdentityTypeError is returned when a provider is handed an identity produced by a
// different provider implementation. It is an integration bug in the host and is never
// recovered from.
type IdentityTypeError struct {
	// Provider is the name of the provider that rejected the identity.
	Provider string
	// Identity is the rejected identity, possibly nil.
	Identity RemoteIdentity
}

func (e *IdentityTypeError) Error() string {
	return fmt.Sprintf("provider %q cannot handle identity of type %T", e.Provider, e.Identity)
}
