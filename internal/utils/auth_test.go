package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(hash, "correct horse"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong horse"), ErrPasswordMismatch)
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(string(legacy), "old-password"))
	assert.ErrorIs(t, VerifyPassword(string(legacy), "nope"), ErrPasswordMismatch)
}

func TestVerifyPassword_EmptyHash(t *testing.T) {
	assert.ErrorIs(t, VerifyPassword("", "anything"), ErrPasswordMismatch)
}

func TestSafeCallbackURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/dashboard?commentMode=true", "/dashboard?commentMode=true"},
		{"/receivables/42", "/receivables/42"},
		{"", "/dashboard"},
		{"https://evil.example.com/", "/dashboard"},
		{"//evil.example.com", "/dashboard"},
		{"/\\evil.example.com", "/dashboard"},
		{"javascript:alert(1)", "/dashboard"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeCallbackURL(tt.in, "/dashboard"), tt.in)
	}
}

func TestStripControlChars(t *testing.T) {
	assert.Equal(t, "ab\ncd\te", StripControlChars("a\x00b\ncd\te\x7f\u0085"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 10))
	assert.Len(t, ShortID(6), 6)
}
