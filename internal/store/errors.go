package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks every failure to talk to the configuration store:
	// connection errors and non-2xx answers alike.
	ErrUnavailable = errors.New("configuration store unavailable")
	// ErrMalformedResponse is returned when the store answers with a body that cannot be decoded.
	ErrMalformedResponse = errors.New("configuration store returned a malformed response")
	// ErrUnknownKey is returned when a patch names a key the store does not declare.
	ErrUnknownKey = errors.New("unknown configuration key")
	// ErrReadOnlyKey is returned when a patch targets an entry that does not allow edits.
	ErrReadOnlyKey = errors.New("configuration key is not editable")
	// ErrInvalidEmail is returned when a test email is requested for a malformed address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrEmptyLogo is returned when a logo upload carries no data.
	ErrEmptyLogo = errors.New("logo file is empty")
	// ErrLogoTooLarge is returned when a logo upload exceeds the size the store keeps.
	ErrLogoTooLarge = errors.New("logo file is too large")
	// ErrInvalidValue is returned when an update value is not a scalar.
	ErrInvalidValue = errors.New("configuration value must be a string, number, boolean or null")
)

// StatusError is returned when the remote store answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("configuration store responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("configuration store responded with status %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrUnavailable) match status failures.
func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}
