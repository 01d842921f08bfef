package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for any authentication failure.
	// Callers cannot distinguish an unknown account from a wrong secret.
	ErrInvalidCredentials = errors.New("invalid username, email, or password")

	// ErrTokenInvalid is returned for any reset token failure, whether the
	// token is unknown, mismatched, or expired.
	ErrTokenInvalid = errors.New("password reset token is invalid or expired")

	// ErrCannotRemoveOnlyLoginCredential rejects a removal that would leave
	// the account with no way to sign in.
	ErrCannotRemoveOnlyLoginCredential = errors.New("cannot remove the only login credential")

	// ErrPasswordComplexity indicates the proposed secret failed policy.
	ErrPasswordComplexity = errors.New("password does not meet complexity requirements")

	// ErrCredentialNotFound is returned when a removal names a credential
	// the account does not hold.
	ErrCredentialNotFound = errors.New("credential not found")
)
