package auth

import (
	"fmt"
	"regexp"
	"strings"
)

// PasswordPolicy defines the requirements for password complexity
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
	MaxRepeatedChars   int
}

// DefaultPasswordPolicy returns a default password policy
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: false,
		MaxRepeatedChars:   3,
	}
}

// CheckPasswordComplexity validates a proposed secret against the policy.
func (p *PasswordPolicy) CheckPasswordComplexity(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	if p.RequireUppercase && !regexp.MustCompile(`[A-Z]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	if p.RequireLowercase && !regexp.MustCompile(`[a-z]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if p.RequireDigit && !regexp.MustCompile(`[0-9]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}

	if p.RequireSpecialChar && !regexp.MustCompile(`[^a-zA-Z0-9]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one special character")
	}

	if p.MaxRepeatedChars > 0 {
		for i := 0; i < len(password)-p.MaxRepeatedChars+1; i++ {
			if strings.Count(password[i:i+p.MaxRepeatedChars], string(password[i])) == p.MaxRepeatedChars {
				return fmt.Errorf("password cannot contain %d or more repeated characters", p.MaxRepeatedChars)
			}
		}
	}

	return nil
}
