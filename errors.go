package uat

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is. Every typed error below unwraps to one of them.
var (
	ErrKeyMaterial          = errors.New("uat: key material unavailable")
	ErrMissingKeyMaterial   = errors.New("uat: public key file not found, did key generation fail?")
	ErrValidation           = errors.New("uat: validation failed")
	ErrTransport            = errors.New("uat: transport failure")
	ErrAuthentication       = errors.New("uat: authentication failed")
	ErrRegistrationConflict = errors.New("uat: configuration already exists")
	ErrRegistrationFailed   = errors.New("uat: configuration registration failed")
	ErrIO                   = errors.New("uat: key store i/o failure")
)

// KeyMaterialError reports a missing, malformed or unreadable signing key.
type KeyMaterialError struct {
	Path string
	Err  error
}

func (e *KeyMaterialError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("uat: key material: %v", e.Err)
	}
	return fmt.Sprintf("uat: key material %s: %v", e.Path, e.Err)
}

func (e *KeyMaterialError) Unwrap() []error { return []error{ErrKeyMaterial, e.Err} }

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("uat: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for constructing a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TransportError wraps a network, DNS or timeout failure. Callers may retry.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("uat: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// HTTPFailure carries the status, body and outbound request of a failed call.
type HTTPFailure struct {
	StatusCode int
	Body       string
	Exchange   *Exchange
}

// AuthenticationError reports a non-2xx response to a login call.
type AuthenticationError struct {
	HTTPFailure
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("uat: login rejected with status %d: %s", e.StatusCode, e.Body)
}

func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// RegistrationConflict reports that a configuration with the same name exists.
// It is advisory: callers may proceed.
type RegistrationConflict struct {
	Name string
	HTTPFailure
}

func (e *RegistrationConflict) Error() string {
	return fmt.Sprintf("UAT configuration '%s' likely already exists. This is not a fatal error.", e.Name)
}

func (e *RegistrationConflict) Unwrap() error { return ErrRegistrationConflict }

// RegistrationFailed reports any other non-2xx response to a configuration call.
type RegistrationFailed struct {
	Name string
	HTTPFailure
}

func (e *RegistrationFailed) Error() string {
	return fmt.Sprintf("uat: configuration %q rejected with status %d: %s", e.Name, e.StatusCode, e.Body)
}

func (e *RegistrationFailed) Unwrap() error { return ErrRegistrationFailed }

// IOError reports that the key store could not be created or written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("uat: key store %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// IsNonFatal reports whether err may be ignored by a setup workflow.
func IsNonFatal(err error) bool {
	return errors.Is(err, ErrRegistrationConflict)
}

// ExchangeOf returns the recorded exchange carried by an HTTP failure, or nil.
func ExchangeOf(err error) *Exchange {
	var (
		authErr  *AuthenticationError
		conflict *RegistrationConflict
		failed   *RegistrationFailed
	)
	switch {
	case errors.As(err, &authErr):
		return authErr.Exchange
	case errors.As(err, &conflict):
		return conflict.Exchange
	case errors.As(err, &failed):
		return failed.Exchange
	}
	return nil
}
