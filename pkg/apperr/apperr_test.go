package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := EmailInUse.On("email").Wrap(errors.New("duplicate"))

	assert.True(t, errors.Is(err, EmailInUse))
	assert.False(t, errors.Is(err, EmailNotVerifiedSignup))
	assert.Equal(t, "email", err.FieldKey())
	assert.Contains(t, err.Error(), "duplicate")
	assert.Empty(t, EmailInUse.Field, "On must not mutate the catalog entry")
}

func TestError_WrappedInFmt(t *testing.T) {
	err := fmt.Errorf("refresh: %w", RefreshFailed.On("refresh_token"))
	assert.True(t, errors.Is(err, RefreshFailed))

	list, ok := From(err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "refresh_token", list[0].FieldKey())
}

func TestList(t *testing.T) {
	var l List
	assert.NoError(t, l.Err())
	assert.Equal(t, http.StatusBadRequest, l.Status())

	l = append(l, InvalidEmail.On("email"), PasswordMismatch.On("password_confirm"))
	err := l.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, PasswordMismatch))

	got, ok := From(err)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestFrom_Unknown(t *testing.T) {
	_, ok := From(errors.New("boom"))
	assert.False(t, ok)
}

func TestCodes_AreEightChars(t *testing.T) {
	for _, e := range []*Error{Internal, Throttled, EmailInUse, RefreshFailed, ActiveSetNotCovered, UserAgreementNotFound} {
		assert.Len(t, e.Code, 8, e.Code)
		assert.Equal(t, NonField, e.FieldKey())
	}
}
