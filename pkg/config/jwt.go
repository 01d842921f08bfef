package config

import "time"

// JwtConfig holds token signing configuration for the HTTP surface
type JwtConfig struct {
	Secret         string        `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Expiry         time.Duration `env:"JWT_EXPIRY" env-default:"24h"`
	CookieHttpOnly bool          `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure   bool          `env:"COOKIE_SECURE" env-default:"false"`
}
