package config

import "time"

// TokenConfig holds verification token lifetimes in minutes
type TokenConfig struct {
	PasswordResetTTLMinutes     int `env:"PASSWORD_RESET_TTL_MINUTES" env-default:"1440"`
	EmailConfirmationTTLMinutes int `env:"EMAIL_CONFIRMATION_TTL_MINUTES" env-default:"1440"`
}

// ResetTTL returns the password reset token lifetime
func (t TokenConfig) ResetTTL() time.Duration {
	return time.Duration(t.PasswordResetTTLMinutes) * time.Minute
}

// ConfirmationTTL returns the email confirmation token lifetime
func (t TokenConfig) ConfirmationTTL() time.Duration {
	return time.Duration(t.EmailConfirmationTTLMinutes) * time.Minute
}
