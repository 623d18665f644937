package session

import (
	"errors"
	"fmt"
)

// ResetConfirmation must be passed to CriticalResetAccount
const ResetConfirmation = "RESET"

var (
	// ErrNotInitialized is returned before the service provider is initialized
	ErrNotInitialized = errors.New("session: service provider not initialized")

	// ErrBusy is returned when another operation is in flight
	ErrBusy = errors.New("session: another operation is in progress")

	// ErrMissingUserID is returned when the identity provider returns no user id
	ErrMissingUserID = errors.New("session: identity has no user id")

	// ErrKeyNotInitialized is returned when no key session exists
	ErrKeyNotInitialized = errors.New("session: key not initialized")

	// ErrNotLoggedIn is returned when the key has not been reconstructed
	ErrNotLoggedIn = errors.New("session: not logged in")

	// ErrAlreadyLoggedIn is returned when a login step is repeated
	ErrAlreadyLoggedIn = errors.New("session: already logged in")

	// ErrConfirmationRequired is returned when a reset is not confirmed
	ErrConfirmationRequired = errors.New("session: reset requires confirmation \"" + ResetConfirmation + "\"")

	// ErrInvalidShare is returned for a malformed share or mnemonic
	ErrInvalidShare = errors.New("session: invalid share")

	// ErrDeviceStorageDisabled is returned when no device storage is configured
	ErrDeviceStorageDisabled = errors.New("session: device storage not configured")

	// ErrDeviceShareNotFound is returned when this device holds no share for the key
	ErrDeviceShareNotFound = errors.New("session: no device share for this key")
)

// Error wraps an underlying error with the operation that failed
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
