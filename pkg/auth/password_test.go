package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secr3t!pass")
	require.NoError(t, err)
	assert.Contains(t, hash, ":")

	salt, _, found := strings.Cut(hash, ":")
	require.True(t, found)
	assert.Len(t, salt, 16)

	// Same input yields a different salt and hash every time
	hash2, err := HashPassword("Secr3t!pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("Secr3t!pass")
	require.NoError(t, err)

	t.Run("Match", func(t *testing.T) {
		match, err := CheckPasswordHash("Secr3t!pass", hash)
		require.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("MismatchIsNotAnError", func(t *testing.T) {
		match, err := CheckPasswordHash("wrong", hash)
		require.NoError(t, err)
		assert.False(t, match)
	})

	t.Run("EmptyHash", func(t *testing.T) {
		match, err := CheckPasswordHash("anything", "")
		require.NoError(t, err)
		assert.False(t, match)
	})
}

func TestDummyPasswordHash(t *testing.T) {
	// Parses as a real stored hash, so the comparison runs the full bcrypt
	// work, and no secret matches it.
	match, err := CheckPasswordHash("any-secret", dummyPasswordHash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestCheckPasswordComplexity(t *testing.T) {
	policy := DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"Valid", "Abcdef12", true},
		{"TooShort", "Ab1", false},
		{"NoUppercase", "abcdef12", false},
		{"NoLowercase", "ABCDEF12", false},
		{"NoDigit", "Abcdefgh", false},
		{"RepeatedChars", "Aaaabc12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.CheckPasswordComplexity(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
