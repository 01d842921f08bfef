package emailchange

import "errors"

var (
	// ErrDuplicateEmail is returned when the target address is already
	// claimed by another account's confirmed email.
	ErrDuplicateEmail = errors.New("email address is already in use by another account")

	// ErrInvalidEmail is returned when the target address does not parse.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrNoChangeInFlight is returned when a resend is requested but no
	// email change is pending.
	ErrNoChangeInFlight = errors.New("no email change in flight")
)
