package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pkghub/gallery-idm/pkg/utils"
)

// Stored password format is "salt:hash", where salt is a random prefix mixed
// into the password before bcrypt. Hashes without a salt prefix are treated
// as legacy plain bcrypt and still verify.

// dummyPasswordHash is a well-formed stored hash that matches no secret.
// Comparing against it on lookup misses keeps verification cost uniform, so
// response timing does not reveal whether an account or password exists.
const dummyPasswordHash = "xxxxxxxxxxxxxxxx:$2a$12$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvwxyzABCDE"

// HashPassword hashes a plaintext secret for storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	salt := utils.GenerateRandomString(16)
	saltedPassword := salt + password
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(saltedPassword), bcrypt.DefaultCost+2)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return fmt.Sprintf("%s:%s", salt, string(hashedBytes)), nil
}

// CheckPasswordHash verifies a plaintext secret against a stored hash.
// A mismatch returns (false, nil); errors are reserved for malformed input.
func CheckPasswordHash(password, hashedPassword string) (bool, error) {
	if hashedPassword == "" {
		return false, nil
	}

	if salt, hash, found := strings.Cut(hashedPassword, ":"); found {
		saltedPassword := salt + password
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(saltedPassword))
		if err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	// Legacy format, plain bcrypt with no salt prefix
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
