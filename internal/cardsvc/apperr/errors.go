// Package apperr holds the error kinds shared by the card service layers.
// Handlers map kinds to HTTP status codes; nothing below the handlers
// should care about transport.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed or missing required input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidToken is returned for every token verification failure.
	// Expired, forged and malformed tokens are indistinguishable.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrNotFound is returned when a card does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration is returned when a capability is missing required
	// configuration (signing secret, store connection string).
	ErrConfiguration = errors.New("invalid configuration")

	// ErrStore wraps any persistence failure.
	ErrStore = errors.New("store failure")

	// ErrUnauthorized is returned when an operator may not write log entries.
	ErrUnauthorized = errors.New("operator not authorized")
)

// OpError is a typed operation error with a stable Op + Kind contract.
// Msg is human readable context and must never carry secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// StoreError carries the underlying driver error for internal logging while
// matching ErrStore for callers.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStore, e.Err)
}

func (e StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

func Validation(op, msg string) error {
	return OpError{Op: op, Kind: ErrValidation, Msg: msg}
}

func Configuration(op, msg string) error {
	return OpError{Op: op, Kind: ErrConfiguration, Msg: msg}
}

func NotFound(op, msg string) error {
	return OpError{Op: op, Kind: ErrNotFound, Msg: msg}
}

func Unauthorized(op, msg string) error {
	return OpError{Op: op, Kind: ErrUnauthorized, Msg: msg}
}

// InvalidToken never takes a message: the cause must not leak to callers.
func InvalidToken(op string) error {
	return OpError{Op: op, Kind: ErrInvalidToken}
}

func Store(op string, err error) error {
	return StoreError{Op: op, Err: err}
}

func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsInvalidToken(err error) bool  { return errors.Is(err, ErrInvalidToken) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }
func IsStore(err error) bool         { return errors.Is(err, ErrStore) }
func IsUnauthorized(err error) bool  { return errors.Is(err, ErrUnauthorized) }
