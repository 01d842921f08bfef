package config

import (
	"github.com/pkghub/gallery-idm/pkg/auth"
)

// PasswordComplexityConfig holds password policy configuration from environment variables
type PasswordComplexityConfig struct {
	RequiredLength         int  `env:"PASSWORD_COMPLEXITY_REQUIRED_LENGTH" env-default:"8"`
	RequireUppercase       bool `env:"PASSWORD_COMPLEXITY_REQUIRE_UPPERCASE" env-default:"true"`
	RequireLowercase       bool `env:"PASSWORD_COMPLEXITY_REQUIRE_LOWERCASE" env-default:"true"`
	RequireDigit           bool `env:"PASSWORD_COMPLEXITY_REQUIRE_DIGIT" env-default:"true"`
	RequireNonAlphanumeric bool `env:"PASSWORD_COMPLEXITY_REQUIRE_NON_ALPHANUMERIC" env-default:"false"`
	MaxRepeatedChars       int  `env:"PASSWORD_COMPLEXITY_MAX_REPEATED_CHARS" env-default:"3"`
}

// ToPasswordPolicy converts the config to an auth.PasswordPolicy
func (p PasswordComplexityConfig) ToPasswordPolicy() *auth.PasswordPolicy {
	return &auth.PasswordPolicy{
		MinLength:          p.RequiredLength,
		RequireUppercase:   p.RequireUppercase,
		RequireLowercase:   p.RequireLowercase,
		RequireDigit:       p.RequireDigit,
		RequireSpecialChar: p.RequireNonAlphanumeric,
		MaxRepeatedChars:   p.MaxRepeatedChars,
	}
}
