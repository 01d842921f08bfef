package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkghub/gallery-idm/pkg/credential"
	"github.com/pkghub/gallery-idm/pkg/verification"
)

// User is the account aggregate. It exclusively owns its credential set and
// the verification tokens attached to it. Users are created by registration
// and never deleted here.
type User struct {
	ID       uuid.UUID
	Username string

	// EmailAddress is the confirmed address; UnconfirmedEmailAddress holds a
	// staged address awaiting confirmation (account creation or email change).
	EmailAddress            string
	UnconfirmedEmailAddress string

	EmailConfirmationToken verification.Token
	PasswordResetToken     verification.Token

	Credentials []credential.Credential

	// Version backs optimistic concurrency in the repository; writers must
	// pass the version they read.
	Version   int64
	CreatedAt time.Time
}

// New returns a fresh unconfirmed user with the given staged email address.
func New(username, unconfirmedEmail string) User {
	return User{
		ID:                      uuid.New(),
		Username:                username,
		UnconfirmedEmailAddress: unconfirmedEmail,
		Version:                 1,
		CreatedAt:               time.Now().UTC(),
	}
}

// Confirmed reports whether the account has a confirmed email address and no
// pending one outstanding.
func (u *User) Confirmed() bool {
	return u.EmailAddress != "" && u.UnconfirmedEmailAddress == ""
}

// PreferredEmail returns the confirmed email address when one exists, falling
// back to the pending address for accounts that have not confirmed yet.
func (u *User) PreferredEmail() string {
	if u.EmailAddress != "" {
		return u.EmailAddress
	}
	return u.UnconfirmedEmailAddress
}

// HasPassword reports whether the user owns a password credential.
func (u *User) HasPassword() bool {
	_, ok := u.PasswordCredential()
	return ok
}

// PasswordCredential returns the user's password credential, if any.
func (u *User) PasswordCredential() (credential.Credential, bool) {
	for _, c := range u.Credentials {
		if c.IsPassword() {
			return c, true
		}
	}
	return credential.Credential{}, false
}

// APIKeyCredential returns the user's API key credential, if any.
func (u *User) APIKeyCredential() (credential.Credential, bool) {
	for _, c := range u.Credentials {
		if c.IsAPIKey() {
			return c, true
		}
	}
	return credential.Credential{}, false
}

// FindCredentialByType returns the credential with the given type tag,
// compared case-insensitively.
func (u *User) FindCredentialByType(credType string) (credential.Credential, bool) {
	probe := credential.Credential{Type: credType}
	for _, c := range u.Credentials {
		if c.SameType(probe) {
			return c, true
		}
	}
	return credential.Credential{}, false
}

// ReplaceCredential upserts a credential by type: an existing credential of
// the same type is replaced, otherwise the credential is appended. No history
// of the old value is kept.
func (u *User) ReplaceCredential(cred credential.Credential) {
	for i, c := range u.Credentials {
		if c.SameType(cred) {
			u.Credentials[i] = cred
			return
		}
	}
	u.Credentials = append(u.Credentials, cred)
}

// RemoveCredential removes the matching credential from the set. It does NOT
// consult the removal guard; callers go through the authentication service.
func (u *User) RemoveCredential(cred credential.Credential) bool {
	for i, c := range u.Credentials {
		if c.SameType(cred) && c.Value == cred.Value {
			u.Credentials = append(u.Credentials[:i], u.Credentials[i+1:]...)
			return true
		}
	}
	return false
}

// ClearPasswordResetToken consumes the outstanding reset token.
func (u *User) ClearPasswordResetToken() {
	u.PasswordResetToken = verification.Token{}
}

// ClearEmailConfirmationToken consumes the outstanding confirmation token.
func (u *User) ClearEmailConfirmationToken() {
	u.EmailConfirmationToken = verification.Token{}
}
