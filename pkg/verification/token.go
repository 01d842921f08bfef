package verification

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"
)

// Purpose binds a token to a single flow so a reset token can never confirm
// an email address and vice versa.
type Purpose string

const (
	PurposePasswordReset     Purpose = "password-reset"
	PurposeEmailConfirmation Purpose = "email-confirmation"
)

// DefaultTTL is the token lifetime used when the caller does not request a
// shorter one.
const DefaultTTL = 24 * time.Hour

// Token is a single-use, time-bounded secret bound to one user and one
// purpose. Lifecycle: issued, then consumed exactly once or expired.
type Token struct {
	Value     string
	Purpose   Purpose
	ExpiresAt time.Time
}

// generateValue returns a cryptographically secure random token value.
func generateValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// New issues a token for the given purpose. A non-positive ttl falls back to
// DefaultTTL.
func New(purpose Purpose, ttl time.Duration) (Token, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	value, err := generateValue()
	if err != nil {
		return Token{}, err
	}

	return Token{
		Value:     value,
		Purpose:   purpose,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// NewWithMinutes issues a token with a caller-requested lifetime in minutes,
// clamped to DefaultTTL. Zero or negative minutes use the default.
func NewWithMinutes(purpose Purpose, minutes int) (Token, error) {
	ttl := time.Duration(minutes) * time.Minute
	if ttl <= 0 || ttl > DefaultTTL {
		ttl = DefaultTTL
	}
	return New(purpose, ttl)
}

// Matches compares a presented value against the token in constant time.
func (t Token) Matches(candidate string) bool {
	if t.Value == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t.Value), []byte(candidate)) == 1
}

// Expired reports whether the token's expiration instant has passed.
// An unset expiration counts as expired so a zero Token never validates.
func (t Token) Expired(now time.Time) bool {
	return t.ExpiresAt.IsZero() || now.After(t.ExpiresAt)
}

// Validate reports whether the presented value matches and the token is
// still live. Mismatch and expiry are deliberately indistinguishable.
func (t Token) Validate(candidate string, now time.Time) bool {
	return t.Matches(candidate) && !t.Expired(now)
}
