package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/pkg/apperr"
)

func TestIsPassword_Boundaries(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"abc12", false},
		{"abc123", true},
		{strings.Repeat("a", 29) + "1", true},
		{strings.Repeat("a", 30) + "1", false},
		{"ABCDEF1", false},
		{"abcdefg", false},
		{"abc_12-X", true},
		{"abc 123", false},
		{"abc!123", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsPassword(tc.in), "%q", tc.in)
	}
}

func TestIsNickname_Boundaries(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a", false},
		{"ab", true},
		{strings.Repeat("가", 30), true},
		{strings.Repeat("가", 31), false},
		{" ab", false},
		{"ab ", false},
		{"a  b", false},
		{"a b", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsNickname(tc.in), "%q", tc.in)
	}
}

func TestIsEmailAndHex32(t *testing.T) {
	assert.True(t, IsEmail("test@example.com"))
	assert.True(t, IsEmail("a.b+c@mail.co.kr"))
	assert.False(t, IsEmail("no-at-sign"))
	assert.False(t, IsEmail("a@b"))

	assert.True(t, IsHex32("0123456789abcdef0123456789abcdef"))
	assert.False(t, IsHex32("0123456789ABCDEF0123456789ABCDEF"))
	assert.False(t, IsHex32("abc"))
}

type signupForm struct {
	Email           string `json:"email" validate:"required,email_fmt"`
	Password        string `json:"password" validate:"required,password_fmt"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func TestStruct_MapsThroughCatalog(t *testing.T) {
	catalog := Catalog{
		"email":            apperr.InvalidEmail,
		"password":         apperr.InvalidPassword,
		"password_confirm": apperr.PasswordMismatch,
	}

	require.NoError(t, Struct(signupForm{"test@example.com", "test123", "test123"}, catalog))

	err := Struct(signupForm{"bad", "test123", "test124"}, catalog)
	require.Error(t, err)
	list, ok := apperr.From(err)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.True(t, errors.Is(err, apperr.InvalidEmail))
	assert.True(t, errors.Is(err, apperr.PasswordMismatch))
	assert.Equal(t, "email", list[0].FieldKey())
	assert.Equal(t, "password_confirm", list[1].FieldKey())
}

func TestStruct_UnknownFieldFallsBack(t *testing.T) {
	err := Struct(signupForm{"test@example.com", "short", "short"}, Catalog{})
	list, ok := apperr.From(err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.True(t, errors.Is(list[0], apperr.InvalidPayload))
	assert.Equal(t, "password", list[0].Field)
}
