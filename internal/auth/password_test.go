package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "Password1", true},
		{"valid with symbol", "Pass-word1", true},
		{"too short", "Pw1aBcD", false},
		{"no uppercase", "password1", false},
		{"no lowercase", "PASSWORD1", false},
		{"no digit", "Passwords", false},
		{"empty", "", false},
		{"digits only", "12345678", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrWeakPassword)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password1")
	require.NoError(t, err)
	require.NotEqual(t, "Password1", hash)

	assert.True(t, CheckPassword("Password1", hash))
	assert.False(t, CheckPassword("Password2", hash))
	assert.False(t, CheckPassword("", hash))
}
