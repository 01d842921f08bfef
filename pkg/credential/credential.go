package credential

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Credential type tags. External credentials carry their provider after the
// prefix, e.g. "external:github".
const (
	TypePassword   = "password"
	TypeAPIKeyV1   = "api-key-v1"
	ExternalPrefix = "external:"
)

// Credential is one way a user can prove identity or authorize API use.
// A credential belongs to exactly one user; the user aggregate owns the set.
type Credential struct {
	Type    string
	Value   string
	Created time.Time
	// Expires is the zero value for credentials that never expire.
	Expires time.Time
}

// NewPassword builds a password credential from an already-hashed secret.
func NewPassword(hashedValue string) Credential {
	return Credential{
		Type:    TypePassword,
		Value:   hashedValue,
		Created: time.Now().UTC(),
	}
}

// NewAPIKeyV1 builds a v1 API key credential. A zero ttl produces an
// unbounded key.
func NewAPIKeyV1(ttl time.Duration) Credential {
	cred := Credential{
		Type:    TypeAPIKeyV1,
		Value:   uuid.NewString(),
		Created: time.Now().UTC(),
	}
	if ttl > 0 {
		cred.Expires = cred.Created.Add(ttl)
	}
	return cred
}

// NewExternal builds a credential marking a federated identity. The value is
// the provider-scoped identity, not a secret.
func NewExternal(provider, identity string) Credential {
	return Credential{
		Type:    ExternalPrefix + provider,
		Value:   identity,
		Created: time.Now().UTC(),
	}
}

// IsPassword reports whether the credential is a password credential.
func (c Credential) IsPassword() bool {
	return strings.EqualFold(c.Type, TypePassword)
}

// IsAPIKey reports whether the credential is an API key.
func (c Credential) IsAPIKey() bool {
	return strings.EqualFold(c.Type, TypeAPIKeyV1)
}

// IsExternal reports whether the credential marks a federated identity.
func (c Credential) IsExternal() bool {
	return len(c.Type) >= len(ExternalPrefix) &&
		strings.EqualFold(c.Type[:len(ExternalPrefix)], ExternalPrefix)
}

// ExternalProvider returns the provider part of an external credential's
// type tag, or "" for other credential kinds.
func (c Credential) ExternalProvider() string {
	if !c.IsExternal() {
		return ""
	}
	return c.Type[len(ExternalPrefix):]
}

// IsLoginCapable reports whether the credential can establish an
// authenticated session. API keys are excluded.
func (c Credential) IsLoginCapable() bool {
	return c.IsPassword() || c.IsExternal()
}

// HasExpired reports whether the credential's expiration instant has passed.
// Credentials without an expiration never expire.
func (c Credential) HasExpired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

// SameType reports whether two credentials carry the same type tag,
// compared case-insensitively.
func (c Credential) SameType(other Credential) bool {
	return strings.EqualFold(c.Type, other.Type)
}
